package nutrition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nutrio/nutrio/internal/history"
	"github.com/nutrio/nutrio/internal/memory"
	"github.com/nutrio/nutrio/internal/rag"
)

// HistorySource loads a user's persisted chat exchanges.
// Defined here, by the consumer; history.Store satisfies it.
type HistorySource interface {
	Recent(ctx context.Context, userID string, limit int32) ([]history.Exchange, error)
}

// Analyzer runs the five analysis pipelines. All collaborators are injected
// at construction; there is no hidden global client state.
//
// The short-term memory belongs to this Analyzer instance, so one Analyzer
// corresponds to one conversational session. The chat pipeline instead
// reloads persisted history per request and is session-free.
type Analyzer struct {
	retriever *rag.Retriever
	client    *Client
	memory    *memory.ShortTerm
	histories HistorySource
	histLimit int32
	logger    *slog.Logger
}

// NewAnalyzer creates an analyzer. histories may be nil; the chat pipeline
// then runs without persisted context.
func NewAnalyzer(retriever *rag.Retriever, client *Client, mem *memory.ShortTerm, histories HistorySource, histLimit int32, logger *slog.Logger) *Analyzer {
	if mem == nil {
		mem = memory.NewShortTerm(6)
	}
	if histLimit <= 0 {
		histLimit = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		retriever: retriever,
		client:    client,
		memory:    mem,
		histories: histories,
		histLimit: histLimit,
		logger:    logger,
	}
}

// Memory exposes the analyzer's short-term memory, mainly so callers can
// clear it between sessions.
func (a *Analyzer) Memory() *memory.ShortTerm {
	return a.memory
}

// AnalyzeRequest is the single-product analysis input.
type AnalyzeRequest struct {
	Profile       Profile
	NutritionText string
	Query         string

	// AskFollowUp controls whether the prompt invites the user to ask for
	// alternatives when the product is not safe. Summaries set it false.
	AskFollowUp bool
}

// Analyze assesses whether a product suits the user's health profile and
// returns a short free-text recommendation. The generated text is returned
// verbatim; the length guidance lives in the prompt, not in post-processing.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) AnalyzeResult {
	a.memory.Add(memory.RoleUser, req.Query)

	passages := a.retrieve(ctx, req.Query, req.Profile)
	prompt := a.analyzePrompt(req, passages)

	text, err := a.client.Generate(ctx, prompt)
	if err != nil {
		a.logger.Error("product analysis failed", "error", err)
		return AnalyzeResult{Status: failStatus(err)}
	}

	a.memory.Add(memory.RoleAssistant, text)

	return AnalyzeResult{
		Status:           okStatus(),
		Recommendation:   text,
		Guidelines:       passages,
		NutritionSummary: req.NutritionText,
	}
}

// retrieve fetches guideline passages, degrading to none on failure:
// a retrieval outage must not abort the pipeline.
func (a *Analyzer) retrieve(ctx context.Context, query string, p Profile) []rag.Passage {
	passages, err := a.retriever.Retrieve(ctx, query, rag.QueryContext{
		Disease: p.Disease,
		Gender:  p.Gender,
	})
	if err != nil {
		a.logger.Warn("guideline retrieval failed, continuing without guidelines", "error", err)
		return nil
	}
	return passages
}

func (a *Analyzer) analyzePrompt(req AnalyzeRequest, passages []rag.Passage) string {
	var sb strings.Builder

	sb.WriteString("You are a Nutrition Assistant at Nutrio. Your job is to analyze food products " +
		"and provide personalized nutrition guidance based on user health conditions.\n\n")

	sb.WriteString("Conversation so far:\n")
	sb.WriteString(a.memory.Context())
	sb.WriteString("\n\n")

	sb.WriteString(profileBlock(req.Profile))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "User Query: %s", req.Query)
	sb.WriteString(guidelinesBlock(passages))

	sb.WriteString("\nProduct Nutrition Information:\n")
	sb.WriteString(req.NutritionText)

	sb.WriteString("\n\nYour Task:\n" +
		"Analyze whether this product is suitable for the user given their health condition(s). Provide:\n" +
		"1. A clear recommendation (Safe/Moderate/Avoid)\n" +
		"2. Specific nutrients of concern (if any)\n" +
		"3. Suggested serving size or frequency of consumption (only if applicable)\n")

	if req.AskFollowUp {
		sb.WriteString("4. If the product is not safe, ask whether they would like an alternative.\n")
	} else {
		sb.WriteString("4. This is a summary, so don't ask the user any more questions.\n")
	}

	sb.WriteString("\nIf it is a general question, reply accordingly. Be polite in fewer words; " +
		"you are a nutrition assistant created by Nutrio. " +
		"If we don't have specific guidelines for the user's condition in our database, " +
		"tell them politely that you don't have that information. " +
		"Be empathetic, clear, and actionable. Keep it under 60 words.")

	return sb.String()
}
