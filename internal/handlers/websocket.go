package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
)

// WebSocketHandler upgrades signed-in admin views to the change feed.
type WebSocketHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	Log      *logger.Logger
}

// NewWebSocketHandler creates a handler that accepts connections from
// siteURL only. An empty siteURL accepts same-host origins.
func NewWebSocketHandler(hub *events.Hub, siteURL string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(siteURL),
		},
		Log: logger.NewLogger("websocket-handler"),
	}
}

// HandleWebSocket handles incoming WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.WithContext(r.Context()).Warn("Error upgrading connection", "error", err)
		return
	}

	h.hub.Attach(conn, session.UserID)
}

func originChecker(siteURL string) func(r *http.Request) bool {
	if siteURL == "" {
		return nil
	}
	allowed, err := url.Parse(siteURL)
	if err != nil {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Scheme == allowed.Scheme && u.Host == allowed.Host
	}
}
