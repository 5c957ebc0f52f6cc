package clientRoutes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/handlers"
	"github.com/nikhil/modportal/internal/middleware"
)

func ClientRoutes(router *mux.Router, h *handlers.Set) {
	protectedRouter := router.PathPrefix("/clients").Subrouter()
	protectedRouter.Use(h.Authenticator.Middleware, middleware.ResponseWrapperMiddleware)

	// Firm routes
	protectedRouter.HandleFunc("/firms", h.Clients.ListFirms).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/firms", h.Clients.CreateFirm).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/firms/{id}", h.Clients.UpdateFirm).Methods(http.MethodPatch)
	protectedRouter.HandleFunc("/firms/{id}/roles", h.Clients.SetFirmRoles).Methods(http.MethodPut)

	// Project routes
	protectedRouter.HandleFunc("/projects", h.Clients.ListProjects).Methods(http.MethodGet)
	protectedRouter.HandleFunc("/projects/{id}/test", h.Clients.TestProject).Methods(http.MethodPost)
}
