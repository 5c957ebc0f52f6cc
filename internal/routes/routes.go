package routes

import (
	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/handlers"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	authRoute "github.com/nikhil/modportal/internal/routes/Auth"
	teamroutes "github.com/nikhil/modportal/internal/routes/TeamRoutes"
	clientRoutes "github.com/nikhil/modportal/internal/routes/clients"
	userRoutes "github.com/nikhil/modportal/internal/routes/user"
)

// List of all route registration functions
var routeModules = []func(*mux.Router, *handlers.Set){
	RegisterHealthRoutes,
	authRoute.RegisterAuthRoutes,
	teamroutes.TeamRoutes,
	userRoutes.UserRoutes,
	clientRoutes.ClientRoutes,
	RegisterWebSocketRoutes,
}

// Register all routes dynamically
func RegisterAllRoutes(h *handlers.Set, log *logger.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))

	for _, register := range routeModules {
		register(router, h)
	}

	return router
}
