package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/handlers"
)

// RegisterWebSocketRoutes registers the change-feed endpoint. Browsers send
// the session cookie with the upgrade request.
func RegisterWebSocketRoutes(router *mux.Router, h *handlers.Set) {
	router.Handle("/ws", h.Authenticator.Middleware(http.HandlerFunc(h.WebSocket.HandleWebSocket))).Methods(http.MethodGet)
}

func RegisterHealthRoutes(router *mux.Router, h *handlers.Set) {
	router.HandleFunc("/healthz", h.Health.Health).Methods(http.MethodGet)
}
