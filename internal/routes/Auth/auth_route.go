package authRoute

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/handlers"
	"github.com/nikhil/modportal/internal/middleware"
)

func RegisterAuthRoutes(router *mux.Router, h *handlers.Set) {
	// Public routes without auth middleware
	publicRouter := router.PathPrefix("/auth").Subrouter()
	publicRouter.Handle("/login", middleware.ResponseWrapperMiddleware(http.HandlerFunc(h.Auth.Login))).Methods(http.MethodPost)
	publicRouter.HandleFunc("/signout", h.Auth.SignOut).Methods(http.MethodGet, http.MethodPost)
	publicRouter.HandleFunc("/callback", h.Auth.Callback).Methods(http.MethodGet)

	protectedRouter := router.PathPrefix("/dashboard").Subrouter()
	protectedRouter.Use(h.Authenticator.Middleware, middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("", h.Auth.Dashboard).Methods(http.MethodGet)
}
