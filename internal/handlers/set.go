package handlers

import "github.com/nikhil/modportal/internal/middleware"

// Set is everything the route modules need to register their endpoints.
type Set struct {
	Auth          *AuthHandler
	Teams         *TeamHandler
	Users         *UserHandler
	Clients       *ClientHandler
	WebSocket     *WebSocketHandler
	Health        *HealthHandler
	Authenticator *middleware.Authenticator
}
