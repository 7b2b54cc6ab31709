// Package server wires the application together: router, middleware,
// handlers, and graceful shutdown. It is the composition root; every
// dependency is constructed here and injected downward.
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
	"github.com/go-chi/httprate"

	"github.com/gregsypek/devflow/internal/ai"
	"github.com/gregsypek/devflow/internal/ai/openai"
	"github.com/gregsypek/devflow/internal/auth"
	"github.com/gregsypek/devflow/internal/config"
	"github.com/gregsypek/devflow/internal/handler"
	"github.com/gregsypek/devflow/internal/middleware"
	sqliteRepo "github.com/gregsypek/devflow/internal/repository/sqlite"
	"github.com/gregsypek/devflow/internal/service"
)

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database, services, handlers,
// routes. Each layer only receives the interfaces it needs.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	providers := make(map[string]auth.Provider)
	if cfg.GitHubClientID != "" {
		gh := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret,
			cfg.OAuthRedirectBase+"/auth/github/callback")
		providers[gh.Name()] = gh
	}
	if cfg.GoogleClientID != "" {
		gg := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.OAuthRedirectBase+"/auth/google/callback")
		providers[gg.Name()] = gg
	}

	var generator ai.Generator = ai.Disabled{}
	if cfg.OpenAIAPIKey != "" {
		aiCfg := openai.DefaultConfig()
		aiCfg.APIKey = cfg.OpenAIAPIKey
		if cfg.OpenAIBaseURL != "" {
			aiCfg.BaseURL = cfg.OpenAIBaseURL
		}
		if cfg.OpenAIModel != "" {
			aiCfg.Model = cfg.OpenAIModel
		}
		generator = openai.New(aiCfg, s.logger)
	} else {
		s.logger.Warn("OPENAI_API_KEY not set, answer drafting disabled")
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	userService := service.NewUserService(s.db, s.logger)
	questionService := service.NewQuestionService(s.db, s.logger)
	answerService := service.NewAnswerService(s.db, s.logger)
	voteService := service.NewVoteService(s.db, s.logger)
	collectionService := service.NewCollectionService(s.db, s.logger)
	tagService := service.NewTagService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, providers, tokens, cfg.IsProduction(), s.logger)
	userHandler := handler.NewUserHandler(userService)
	questionHandler := handler.NewQuestionHandler(questionService)
	answerHandler := handler.NewAnswerHandler(answerService)
	voteHandler := handler.NewVoteHandler(voteService)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	tagHandler := handler.NewTagHandler(tagService, questionService)
	aiHandler := handler.NewAIHandler(generator, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Credential endpoints are rate limited per IP; they are the ones
	// worth brute-forcing.
	s.router.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
		r.Post("/auth/signup", authHandler.HandleSignUp)
		r.Post("/auth/signin", authHandler.HandleSignIn)
	})
	s.router.Post("/auth/logout", authHandler.HandleLogout)
	s.router.Get("/auth/{provider}/login", authHandler.HandleOAuthLogin)
	s.router.Get("/auth/{provider}/callback", authHandler.HandleOAuthCallback)

	s.router.Route("/api", func(r chi.Router) {
		// Public reads.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/questions", questionHandler.HandleList)
			r.Get("/questions/{id}", questionHandler.HandleGet)
			r.Get("/questions/{id}/answers", answerHandler.HandleList)
			r.Get("/tags", tagHandler.HandleList)
			r.Get("/tags/{id}", tagHandler.HandleGet)
			r.Get("/users", userHandler.HandleList)
			r.Get("/users/{id}", userHandler.HandleGet)
		})

		// Authenticated writes.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Put("/me", userHandler.HandleUpdateMe)

			r.Post("/questions", questionHandler.HandleCreate)
			r.Put("/questions/{id}", questionHandler.HandleUpdate)
			r.Delete("/questions/{id}", questionHandler.HandleDelete)

			r.Post("/questions/{id}/answers", answerHandler.HandlePost)
			r.Delete("/answers/{id}", answerHandler.HandleDelete)

			r.Post("/votes", voteHandler.HandleCast)
			r.Get("/votes", voteHandler.HandleGet)

			r.Post("/collections/{questionID}", collectionHandler.HandleToggle)
			r.Get("/collections", collectionHandler.HandleList)

			r.Post("/ai/answers", aiHandler.HandleDraft)
		})
	})

	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the
// database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
