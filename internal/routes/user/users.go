package userRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/handlers"
	"github.com/nikhil/modportal/internal/middleware"
)

func UserRoutes(router *mux.Router, h *handlers.Set) {
	// Protected routes requiring authentication
	protectedRouter := router.PathPrefix("/org").Subrouter()
	protectedRouter.Use(h.Authenticator.Middleware, middleware.ResponseWrapperMiddleware)

	protectedRouter.HandleFunc("/users", h.Users.List).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/users", h.Users.Create).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/users/{id}", h.Users.Update).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/users/{id}/status", h.Users.SetStatus).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/roles", h.Users.Roles).Methods(http.MethodGet)
}
