// Package app wires the nutrio components together: configuration, Genkit
// with the Google AI plugin, the guideline vector index, PostgreSQL chat
// history, and the analysis pipelines.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nutrio/nutrio/internal/config"
	"github.com/nutrio/nutrio/internal/history"
	"github.com/nutrio/nutrio/internal/knowledge"
	"github.com/nutrio/nutrio/internal/nutrition"
	"github.com/nutrio/nutrio/internal/rag"
)

// App is the composition root. Every collaborator is constructed once in
// Setup and injected explicitly; nothing reaches for package-level state.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Model    ai.Model

	DBPool    *pgxpool.Pool
	Histories *history.Store
	Index     *knowledge.Index
	Retriever *rag.Retriever
	Analyzer  *nutrition.Analyzer
}

// Close releases held resources. Safe to call on a partially built App.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database pool closed")
	}
	return nil
}
