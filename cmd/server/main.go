// coachd serves the productivity coaching API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/coachd/internal/agent"
	"github.com/ashureev/coachd/internal/api"
	"github.com/ashureev/coachd/internal/chatws"
	"github.com/ashureev/coachd/internal/coach"
	"github.com/ashureev/coachd/internal/config"
	"github.com/ashureev/coachd/internal/grpchealth"
	"github.com/ashureev/coachd/internal/identity"
	"github.com/ashureev/coachd/internal/middleware"
	"github.com/ashureev/coachd/internal/persistence"
	"github.com/ashureev/coachd/internal/store"
	"github.com/ashureev/coachd/internal/sweeper"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "provider", cfg.LLM.Provider)

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()
	if err := repo.Ping(context.Background()); err != nil {
		return err
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, err := agent.NewProcessor(ctx, agent.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, cfg.LLM.AnthropicAPIKey, cfg.LLM.AnthropicBaseURL, cfg.LLM.GoogleAPIKey)
	if err != nil {
		return err
	}

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	service := agent.NewServiceWithProcessor(processor, cfg.LLM.Timeout, conversationLogger, logger)
	limiter := agent.NewRateLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.WindowDuration)
	defer limiter.Close()

	state := persistence.New(repo, cfg.StateKey, logger)
	controller := coach.NewController(state, service, conversationLogger, logger)
	registry := chatws.NewRegistry()

	chatHandler := agent.NewHandler(service, limiter, cfg.MaxRequestBodySize, logger)
	apiHandler := api.NewHandler(repo, state, controller, api.Options{
		SignalTTL:   cfg.SignalTTL,
		MaxBodySize: cfg.MaxRequestBodySize,
		Logger:      logger,
	})
	healthHandler := api.NewHealthHandler(repo, 5*time.Second, service.ProviderName())
	wsHandler := chatws.NewHandler(controller, registry, repo, cfg.CORSAllowedOrigins, cfg.IsDevelopment(), logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins, identity.SessionHeaderName))

	healthHandler.RegisterHealth(r)
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		chatHandler.RegisterRoutes(r)
		apiHandler.RegisterRoutes(r)
		r.Get("/ws/conversation", wsHandler.ServeHTTP)
	})

	// Relay calls can take as long as the model does, so there is no write
	// timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down gracefully...")
		registry.CloseAll("server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sweeper.New(repo, controller, sweeper.Config{
			Interval:         cfg.SweepInterval,
			SignalTTL:        cfg.SignalTTL,
			ConversationIdle: cfg.ConversationIdle,
		}, logger).Run(gctx)
	})

	if cfg.GRPCHealthPort != "" {
		g.Go(func() error {
			return grpchealth.New(repo, 0, logger).ListenAndServe(gctx, ":"+cfg.GRPCHealthPort)
		})
	}

	return g.Wait()
}
