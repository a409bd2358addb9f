package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nutrio/nutrio/internal/log"
)

type stubAppender struct {
	calls int
	err   error

	userID   string
	message  string
	response string
}

func (s *stubAppender) Append(_ context.Context, userID, message, response string) error {
	s.calls++
	s.userID, s.message, s.response = userID, message, response
	return s.err
}

func TestPersistExchangeStoresForIdentifiedUser(t *testing.T) {
	store := &stubAppender{}

	persistExchange(context.Background(), store, log.NewNop(), "user-1", "hello", "hi there")

	if store.calls != 1 {
		t.Fatalf("Append calls = %d, want 1", store.calls)
	}
	if store.userID != "user-1" || store.message != "hello" || store.response != "hi there" {
		t.Errorf("stored exchange = %+v", store)
	}
}

func TestPersistExchangeSkipsAnonymousUsers(t *testing.T) {
	store := &stubAppender{}

	persistExchange(context.Background(), store, log.NewNop(), "", "hello", "hi there")

	if store.calls != 0 {
		t.Errorf("anonymous exchanges must not be stored, got %d calls", store.calls)
	}
}

func TestPersistExchangeWarnsViaInjectedLogger(t *testing.T) {
	store := &stubAppender{err: errors.New("connection refused")}

	var buf bytes.Buffer
	logger := log.NewWithWriter(&buf, log.Config{Level: slog.LevelWarn})

	persistExchange(context.Background(), store, logger, "user-1", "hello", "hi there")

	out := buf.String()
	if !strings.Contains(out, "failed to persist chat exchange") {
		t.Errorf("expected warning in injected logger output, got %q", out)
	}
	if !strings.Contains(out, "user-1") {
		t.Errorf("warning missing user id, got %q", out)
	}
}
