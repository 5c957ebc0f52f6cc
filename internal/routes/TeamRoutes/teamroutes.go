package teamroutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/handlers"
	"github.com/nikhil/modportal/internal/middleware"
)

func TeamRoutes(router *mux.Router, h *handlers.Set) {
	protectedRouter := router.PathPrefix("/org/teams").Subrouter()
	protectedRouter.Use(h.Authenticator.Middleware, middleware.ResponseWrapperMiddleware)
	protectedRouter.HandleFunc("", h.Teams.List).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", h.Teams.Create).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/{id}/name", h.Teams.Rename).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id}/parent", h.Teams.SetParent).Methods(http.MethodPut)
	protectedRouter.HandleFunc("/{id}/members", h.Teams.SetMembers).Methods(http.MethodPut)
}
