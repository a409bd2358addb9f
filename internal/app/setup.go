package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrio/nutrio/db"
	"github.com/nutrio/nutrio/internal/config"
	"github.com/nutrio/nutrio/internal/history"
	"github.com/nutrio/nutrio/internal/knowledge"
	"github.com/nutrio/nutrio/internal/memory"
	"github.com/nutrio/nutrio/internal/nutrition"
	"github.com/nutrio/nutrio/internal/rag"
)

// Setup builds the full application: Genkit, vector index, database pool,
// and the analysis pipelines. On error, everything already initialized is
// released before returning. Call Close() on the returned App to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, embedder, model, err := provideGenkit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Embedder = embedder
	a.Model = model

	index, err := knowledge.NewIndex(cfg.IndexPath, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("opening guideline index: %w", err)
	}
	a.Index = index
	a.Retriever = rag.NewRetriever(index, cfg.Collection, cfg.TopK, cfg.MaxDistance, logger)

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	a.Histories = history.New(pool, logger)

	client := nutrition.NewClient(g, model, nutrition.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BackoffBase: cfg.BackoffBase,
	}, nil, logger)

	a.Analyzer = nutrition.NewAnalyzer(
		a.Retriever,
		client,
		memory.NewShortTerm(cfg.MaxTurns),
		a.Histories,
		cfg.HistoryLimit,
		logger,
	)

	logger.Info("application ready",
		"model", cfg.ModelName,
		"embedder", cfg.EmbedderModel,
		"collection", cfg.Collection)

	return a, nil
}

// SetupIndexer builds just enough to rebuild the guideline index offline:
// Genkit with the embedder, plus the persistent index. No database, no model.
func SetupIndexer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := checkAPIKey(); err != nil {
		return nil, err
	}
	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder %q not found", config.ErrInvalidEmbedderModel, cfg.EmbedderModel)
	}

	index, err := knowledge.NewIndex(cfg.IndexPath, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("opening guideline index: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Genkit:   g,
		Embedder: embedder,
		Index:    index,
	}, nil
}

// provideGenkit initializes Genkit with the Google AI plugin and resolves the
// configured model and embedder.
func provideGenkit(ctx context.Context, cfg *config.Config) (*genkit.Genkit, ai.Embedder, ai.Model, error) {
	if err := checkAPIKey(); err != nil {
		return nil, nil, nil, err
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	if embedder == nil {
		return nil, nil, nil, fmt.Errorf("%w: embedder %q not found", config.ErrInvalidEmbedderModel, cfg.EmbedderModel)
	}

	model := googlegenai.GoogleAIModel(g, cfg.ModelName)
	if model == nil {
		return nil, nil, nil, fmt.Errorf("%w: model %q not found", config.ErrInvalidModelName, cfg.ModelName)
	}

	return g, embedder, model, nil
}

// checkAPIKey verifies a Gemini credential is present before Genkit init,
// which would otherwise fail with a less actionable message.
func checkAPIKey() error {
	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or GOOGLE_API_KEY", config.ErrMissingAPIKey)
	}
	return nil
}

// provideDBPool runs migrations and opens the chat-history connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	connURL := cfg.PostgresURL()

	if err := db.Migrate(connURL); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("database connected", "host", cfg.PostgresHost, "database", cfg.PostgresDBName)
	return pool, nil
}
