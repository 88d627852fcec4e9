// UniGen - multi-agent study assistant server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/unigenai/unigen/internal/api"
	"github.com/unigenai/unigen/internal/chat"
	"github.com/unigenai/unigen/internal/config"
	"github.com/unigenai/unigen/internal/domain"
	"github.com/unigenai/unigen/internal/identity"
	"github.com/unigenai/unigen/internal/interview"
	"github.com/unigenai/unigen/internal/llm"
	"github.com/unigenai/unigen/internal/middleware"
	"github.com/unigenai/unigen/internal/probe"
	"github.com/unigenai/unigen/internal/rag"
	"github.com/unigenai/unigen/internal/responder"
	"github.com/unigenai/unigen/internal/router"
	"github.com/unigenai/unigen/internal/store"
	"github.com/unigenai/unigen/web"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate has already checked the level.
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped successfully")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "llm_provider", cfg.LLM.Provider)

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()
	slog.Info("Database connected", "path", cfg.DBPath)

	gen, embedder, err := llm.New(llm.Options{
		Provider:        cfg.LLM.Provider,
		BaseURL:         cfg.LLM.BaseURL,
		APIKey:          cfg.LLM.APIKey,
		Model:           cfg.LLM.Model,
		EmbeddingModel:  cfg.LLM.EmbeddingModel,
		AnthropicAPIKey: cfg.LLM.AnthropicAPIKey,
		AnthropicModel:  cfg.LLM.AnthropicModel,
		Timeout:         cfg.LLM.Timeout,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	index := rag.NewIndex(embedder, rag.Options{
		TopK:      cfg.Retrieval.TopK,
		ChunkSize: cfg.Retrieval.ChunkSize,
		Timeout:   cfg.LLM.Timeout,
		Logger:    logger,
	})

	// Initialize services.
	sessions := interview.NewStore()
	academic := responder.NewAcademic(responder.AcademicConfig{
		Sessions:     sessions,
		Generator:    gen,
		Evaluator:    llm.NewEvaluator(gen),
		Extractor:    llm.NewExtractor(gen),
		Retriever:    index,
		Recorder:     repo,
		Logger:       logger,
		WriteTimeout: cfg.StoreWriteTimeout,
	})
	chatService := chat.NewService(chat.ServiceConfig{
		Router: router.New(sessions, router.NewClassifier(gen, cfg.LLM.ClassifyTimeout, logger)),
		Responders: map[domain.Agent]responder.Responder{
			domain.AgentAcademic: academic,
			domain.AgentContent:  responder.NewContent(gen, logger),
			domain.AgentCode:     responder.NewCode(gen, logger),
			domain.AgentGeneral:  responder.NewGeneral(gen, logger),
		},
		Recorder:     repo,
		WriteTimeout: cfg.StoreWriteTimeout,
		Logger:       logger,
	})

	// Initialize handlers.
	chatHandler := chat.NewHandler(chatService, cfg.MaxRequestBodyBytes, cfg.IsDevelopment(), logger)
	apiHandler := api.NewHandler(api.Config{
		Repo:           repo,
		Sessions:       sessions,
		Ingester:       index,
		UploadDir:      cfg.UploadDir,
		UploadMaxBytes: cfg.UploadMaxBytes,
		IsDev:          cfg.IsDevelopment(),
		Logger:         logger,
	})
	healthHandler := api.NewHealthHandler(repo)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	origins := []string{"*"}
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(origins))

	// Public routes.
	healthHandler.RegisterHealth(r)

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo, cfg.IsDevelopment()))
		chatHandler.RegisterRoutes(r)
		apiHandler.RegisterRoutes(r)
	})

	// Serve embedded frontend (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// SSE turns stream for as long as generation takes, so no WriteTimeout.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Interview.IdleTTL > 0 {
		sweeper, err := interview.NewSweeper(sessions, cfg.Interview.IdleTTL, cfg.Interview.SweepSchedule, logger)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := index.IngestDir(gctx, cfg.UploadDir)
		if err != nil {
			// Retrieval degrades to an empty corpus; chat keeps working.
			slog.Warn("Failed to ingest stored documents", "dir", cfg.UploadDir, "error", err)
			return nil
		}
		slog.Info("Stored documents ingested", "dir", cfg.UploadDir, "chunks", n)
		return nil
	})

	if cfg.Health.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.Health.GRPCPort)
		if err != nil {
			return err
		}
		p := probe.New(repo, cfg.Health.Interval, logger)
		g.Go(func() error { return p.Serve(gctx, lis) })
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
