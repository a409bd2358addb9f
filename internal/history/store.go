// Package history persists chat exchanges so conversational context can be
// reloaded per request. Unlike in-process short-term memory, persisted history
// survives restarts and is shared across instances, which makes it the safer
// source of chat context under concurrent traffic.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NoConversation is the transcript rendered when a user has no history.
const NoConversation = "No previous conversation."

// Exchange is one stored user/assistant round trip.
type Exchange struct {
	ID        uuid.UUID
	UserID    string
	Message   string
	Response  string
	CreatedAt time.Time
}

// Store reads and writes chat history in PostgreSQL.
// Safe for concurrent use; the pool handles connection management.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a history store backed by the given pool.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Append stores a completed exchange.
func (s *Store) Append(ctx context.Context, userID, message, response string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_history (id, user_id, message, response) VALUES ($1, $2, $3, $4)`,
		uuid.New(), userID, message, response)
	if err != nil {
		return fmt.Errorf("appending chat history: %w", err)
	}

	s.logger.Debug("chat exchange stored", "user_id", userID, "message_length", len(message))
	return nil
}

// Recent returns the user's most recent exchanges, oldest first, limited to
// limit entries. Oldest-first ordering lets callers render the transcript in
// conversation order directly.
func (s *Store) Recent(ctx context.Context, userID string, limit int32) ([]Exchange, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, message, response, created_at
		   FROM chat_history
		  WHERE user_id = $1
		  ORDER BY created_at DESC
		  LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.ID, &e.UserID, &e.Message, &e.Response, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat history row: %w", err)
		}
		exchanges = append(exchanges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chat history rows: %w", err)
	}

	reverse(exchanges)
	return exchanges, nil
}

// Transcript renders exchanges as the "User: ...\nAI: ..." block the chat
// prompt embeds, or NoConversation when there are none.
func Transcript(exchanges []Exchange) string {
	if len(exchanges) == 0 {
		return NoConversation
	}

	var sb strings.Builder
	for _, e := range exchanges {
		sb.WriteString("User: ")
		sb.WriteString(e.Message)
		sb.WriteString("\nAI: ")
		sb.WriteString(e.Response)
		sb.WriteString("\n")
	}
	return sb.String()
}

func reverse(exchanges []Exchange) {
	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
}
