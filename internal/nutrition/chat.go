package nutrition

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutrio/nutrio/internal/history"
)

// ChatRequest is the free-form chat input.
type ChatRequest struct {
	UserID  string
	Profile Profile
	Message string
}

// Chat answers a free-form message grounded in guideline passages and the
// user's persisted conversation history, reloaded fresh per request. The
// reply text is returned verbatim.
func (a *Analyzer) Chat(ctx context.Context, req ChatRequest) ChatResult {
	transcript := a.loadTranscript(ctx, req.UserID)
	passages := a.retrieve(ctx, req.Message, req.Profile)

	var sb strings.Builder
	sb.WriteString("You are a Nutrition Assistant at Nutrio, chatting with a user about their " +
		"diet, products, and health goals.\n\n")

	sb.WriteString("Conversation so far:\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\n")

	sb.WriteString(profileBlock(req.Profile))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "User Message: %s", req.Message)
	sb.WriteString(guidelinesBlock(passages))

	sb.WriteString("\n\nAnswer the user's message directly and personally, using their health " +
		"profile and the guidelines above. If no guidelines cover their question, say so " +
		"politely instead of inventing limits. Be warm and concise; keep it under 80 words.")

	text, err := a.client.Generate(ctx, sb.String())
	if err != nil {
		a.logger.Error("chat generation failed", "user_id", req.UserID, "error", err)
		return ChatResult{Status: failStatus(err)}
	}

	return ChatResult{
		Status:   okStatus(),
		Response: text,
	}
}

// loadTranscript reloads the user's persisted history, degrading to the
// no-conversation sentinel when the store is absent or unavailable.
func (a *Analyzer) loadTranscript(ctx context.Context, userID string) string {
	if a.histories == nil || userID == "" {
		return history.NoConversation
	}

	exchanges, err := a.histories.Recent(ctx, userID, a.histLimit)
	if err != nil {
		a.logger.Warn("chat history unavailable, continuing without context",
			"user_id", userID, "error", err)
		return history.NoConversation
	}
	return history.Transcript(exchanges)
}
