package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nikhil/modportal/internal/config"
	"github.com/nikhil/modportal/internal/database"
	"github.com/nikhil/modportal/internal/events"
	"github.com/nikhil/modportal/internal/handlers"
	"github.com/nikhil/modportal/internal/identity"
	"github.com/nikhil/modportal/internal/logger"
	"github.com/nikhil/modportal/internal/middleware"
	"github.com/nikhil/modportal/internal/routes"
	services "github.com/nikhil/modportal/internal/service/auth"
	firmService "github.com/nikhil/modportal/internal/service/firms"
	projectService "github.com/nikhil/modportal/internal/service/projects"
	teamService "github.com/nikhil/modportal/internal/service/team"
	userService "github.com/nikhil/modportal/internal/service/users"
	"github.com/nikhil/modportal/internal/store"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, (*config.Config).Validate)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String("http-addr", ":8080", "address to listen on")
	cmd.Flags().String("site-url", "http://localhost:3000", "public origin of the portal")
	addDBFlags(cmd)
	return cmd
}

func loadConfig(cmd *cobra.Command, validate func(*config.Config) error) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.NewLogger("modportal")
	defer log.Sync()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db)
	gw := store.NewGateway(db)
	hub := events.NewHub(logger.NewLogger("events"))
	idp := identity.NewClient(cfg.IdentityURL, cfg.IdentityAnonKey)

	h := &handlers.Set{
		Auth:          handlers.NewAuthHandler(services.NewAuthService(idp), cfg.SecureCookies()),
		Teams:         handlers.NewTeamHandler(teamService.NewTeamService(st, gw, hub)),
		Users:         handlers.NewUserHandler(userService.NewUserService(st, gw, hub)),
		Clients:       handlers.NewClientHandler(firmService.NewFirmService(st, gw, hub), projectService.NewProjectService(st, cfg.ProjectCheckTimeout)),
		WebSocket:     handlers.NewWebSocketHandler(hub, cfg.SiteURL),
		Health:        handlers.NewHealthHandler(db),
		Authenticator: middleware.NewAuthenticator(cfg.JWTSecret, logger.NewLogger("auth-middleware")),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.RegisterAllRoutes(h, logger.NewLogger("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("Server is running", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
