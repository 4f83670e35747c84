// Package server is the composition root: it wires the database, the
// session codec, the GitHub clients, the services and the handlers into a
// chi router, and owns startup and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/blabladev/devhub/internal/auth"
	"github.com/blabladev/devhub/internal/config"
	"github.com/blabladev/devhub/internal/github"
	"github.com/blabladev/devhub/internal/handler"
	"github.com/blabladev/devhub/internal/middleware"
	sqliteRepo "github.com/blabladev/devhub/internal/repository/sqlite"
	"github.com/blabladev/devhub/internal/service"
	"github.com/blabladev/devhub/internal/token"
)

// Server owns the router and the resources that need closing on shutdown:
// the database connection and the watcher registry.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	watches *service.WatchRegistry
}

// New assembles the full dependency chain. Each layer only receives what it
// needs: services get repository interfaces, handlers get services.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	codec, err := token.NewCodec(cfg.CryptoKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("building session codec: %w", err)
	}

	// The hosting account's client provisions repositories; per-user
	// clients are built on demand from session tokens.
	host := github.NewClient(cfg.GitHubToken)
	userClients := func(accessToken string) service.UserAPI {
		return github.NewClient(accessToken)
	}

	watches := service.NewWatchRegistry(host, cfg.GitHubUser,
		cfg.WatchInterval, cfg.WatchMaxPolls, logger)

	exchanger := auth.NewProvider(cfg.GitHubClientID, cfg.GitHubClientSecret)
	userService := service.NewUserService(db, db, exchanger, userClients,
		codec, cfg.GitHubUser, cfg.CVDir, logger)
	projectService := service.NewProjectService(host, db, db, watches,
		cfg.GitHubUser, cfg.TemplateOrg, logger)

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		watches: watches,
	}
	s.setupRoutes(
		auth.NewGate(codec),
		handler.NewUserHandler(userService),
		handler.NewProjectHandler(projectService),
	)

	return s, nil
}

func (s *Server) setupRoutes(gate *auth.Gate, users *handler.UserHandler, projects *handler.ProjectHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.corsMiddleware())

	s.router.Route("/users", func(r chi.Router) {
		// Login carries its own per-IP limit: a burst of auth attempts is
		// either a broken frontend loop or someone probing codes.
		r.With(middleware.RateLimit(s.config.AuthRatePerMin)).
			Post("/auth", users.HandleAuth)

		r.Group(func(r chi.Router) {
			r.Use(gate.Require)
			// Registered on both verbs for frontend compatibility.
			r.Delete("/logout", users.HandleLogout)
			r.Get("/logout", users.HandleLogout)
			r.Get("/check_session", users.HandleCheckSession)
			r.Patch("/upload_cv", users.HandleUploadCV)
			r.Get("/check_invites", users.HandleCheckInvites)
			r.Get("/get_projects", users.HandleGetProjects)
		})
	})

	s.router.Route("/projects", func(r chi.Router) {
		r.Use(gate.Require)
		r.Get("/", projects.HandleList)
		r.Get("/readme/{repo}", projects.HandleReadme)
		r.Post("/start", projects.HandleStart)
		r.Get("/accept_invite/{invitation_id}", users.HandleAcceptInvite)
	})
}

// corsMiddleware builds the CORS handler from the configured origins. With
// no explicit origins the requesting origin is reflected, which keeps
// credentialed requests working during development.
func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	origins := s.config.CORSOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		opts.AllowOriginFunc = func(_ *http.Request, _ string) bool {
			return true
		}
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.Handler(opts)
}

// Handler exposes the assembled router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down in
// order: stop accepting requests, cancel outstanding watchers, close the
// database.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.watches.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutdown requested")

		// In-flight requests get 30 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
