// Package app assembles the tutor from its parts.
//
// Setup owns startup order: tracing first so Genkit's tracer has an
// exporter, then the database pool, then Genkit and the model-backed
// pipeline components. Close releases everything in reverse.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedikagupta0/ncert-ai-tutor/internal/config"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/conversation"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/index"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/log"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/observability"
	"github.com/vedikagupta0/ncert-ai-tutor/internal/tutor"
)

// App holds the assembled application. Create with Setup, release with
// Close.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Genkit   *genkit.Genkit
	Pool     *pgxpool.Pool
	Registry *conversation.Registry
	Index    *index.Store
	Tutor    *tutor.Tutor

	traceShutdown func(context.Context) error
}

// Setup creates and initializes the application. On error, everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg}
	defer func() {
		if retErr != nil {
			_ = a.Close()
		}
	}()

	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	a.Logger = log.New(log.Config{Level: level, JSON: cfg.LogJSON})

	if cfg.Tracing.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Tracing.Environment,
		})
		if err != nil {
			return nil, fmt.Errorf("setting up tracing: %w", err)
		}
		a.traceShutdown = shutdown
	}

	pool, err := providePool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	a.Genkit = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(a.Genkit, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found", cfg.EmbedderModel)
	}

	a.Index = index.New(pool, embedder, a.Logger)
	a.Registry = conversation.NewRegistry(a.Logger)

	modelName := cfg.FullModelName()
	a.Tutor, err = tutor.New(tutor.Config{
		Registry:      a.Registry,
		Rewriter:      tutor.NewRewriter(a.Genkit, modelName, a.Logger),
		Retriever:     tutor.NewRetriever(a.Index, cfg.TopK, a.Logger),
		Generator:     tutor.NewGenerator(a.Genkit, modelName, cfg.Temperature, a.Logger),
		Titler:        tutor.NewTitler(a.Genkit, modelName, a.Logger),
		Logger:        a.Logger,
		HistoryWindow: cfg.HistoryWindow,
	})
	if err != nil {
		return nil, fmt.Errorf("building tutor: %w", err)
	}

	a.Logger.Info("application ready",
		"model", modelName,
		"embedder", cfg.EmbedderModel,
		"top_k", cfg.TopK,
		"history_window", cfg.HistoryWindow)
	return a, nil
}

// providePool creates the passage index connection pool and verifies
// connectivity so a bad DSN fails at startup.
func providePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	// Read-mostly workload: a few turns in flight at a time.
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging passage index: %w", err)
	}
	return pool, nil
}

// Close releases resources in reverse initialization order. Safe to
// call on a partially initialized App.
func (a *App) Close() error {
	var errs []error
	if a.Pool != nil {
		a.Pool.Close()
		a.Pool = nil
	}
	if a.traceShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.traceShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracing: %w", err))
		}
		cancel()
		a.traceShutdown = nil
	}
	return errors.Join(errs...)
}
