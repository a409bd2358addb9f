package nutrition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/nutrio/nutrio/internal/log"
	"github.com/nutrio/nutrio/internal/testutil"
)

// newTestClient wires a client around a scripted mock model, replacing the
// backoff sleep with a recorder so tests never wait on the wall clock.
func newTestClient(t *testing.T, mock *testutil.MockModel) (*Client, *[]time.Duration) {
	t.Helper()

	g := genkit.Init(context.Background())
	model := mock.Register(g)

	client := NewClient(g, model, RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
	}, nil, log.NewNop())

	var sleeps []time.Duration
	client.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return client, &sleeps
}

func TestGenerateSuccess(t *testing.T) {
	mock := testutil.NewMockModel("Safe: enjoy in moderation.")
	client, sleeps := newTestClient(t, mock)

	got, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Safe: enjoy in moderation." {
		t.Errorf("response = %q", got)
	}
	if len(*sleeps) != 0 {
		t.Errorf("no backoff expected on success, slept %v", *sleeps)
	}
	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1", mock.Calls())
	}
}

func TestGenerateRetriesOnOverload(t *testing.T) {
	mock := testutil.NewMockModel("Recovered answer.")
	mock.QueueError(errors.New("503 service overloaded"))
	mock.QueueError(errors.New("model is overloaded, try later"))
	mock.Queue("Recovered answer.")

	client, sleeps := newTestClient(t, mock)

	got, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Recovered answer." {
		t.Errorf("response = %q", got)
	}
	if mock.Calls() != 3 {
		t.Errorf("calls = %d, want 3", mock.Calls())
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], d)
		}
	}
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	mock := testutil.NewMockModel("")
	for i := 0; i < 3; i++ {
		mock.QueueError(errors.New("503 service unavailable"))
	}

	client, sleeps := newTestClient(t, mock)

	_, err := client.Generate(context.Background(), "analyze this")
	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
	if mock.Calls() != 3 {
		t.Errorf("calls = %d, want exactly 3", mock.Calls())
	}
	// No sleep after the final attempt.
	if len(*sleeps) != 2 {
		t.Errorf("sleeps = %v, want exactly 2 entries", *sleeps)
	}
}

func TestGenerateServerErrorFailsImmediately(t *testing.T) {
	mock := testutil.NewMockModel("")
	mock.QueueError(errors.New("500 internal server error"))

	client, sleeps := newTestClient(t, mock)

	_, err := client.Generate(context.Background(), "analyze this")
	if !errors.Is(err, ErrServerFailure) {
		t.Fatalf("expected ErrServerFailure, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", mock.Calls())
	}
	if len(*sleeps) != 0 {
		t.Errorf("no backoff expected, slept %v", *sleeps)
	}
}

func TestGenerateUnknownErrorFailsImmediately(t *testing.T) {
	mock := testutil.NewMockModel("")
	mock.QueueError(errors.New("connection refused"))

	client, _ := newTestClient(t, mock)

	_, err := client.Generate(context.Background(), "analyze this")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", mock.Calls())
	}
}

func TestGenerateCanceledDuringBackoff(t *testing.T) {
	mock := testutil.NewMockModel("")
	mock.QueueError(errors.New("503 overloaded"))
	mock.Queue("never reached")

	g := genkit.Init(context.Background())
	model := mock.Register(g)
	client := NewClient(g, model, RetryPolicy{MaxAttempts: 3, BackoffBase: time.Millisecond}, nil, log.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "analyze this")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown on canceled context, got %v", err)
	}
	if got := mock.Calls(); got > 1 {
		t.Errorf("calls = %d, want at most 1 (no retries after cancellation)", got)
	}
}

func TestNewClientDefaultsLimiter(t *testing.T) {
	mock := testutil.NewMockModel("")
	g := genkit.Init(context.Background())
	model := mock.Register(g)

	client := NewClient(g, model, DefaultRetryPolicy(), nil, log.NewNop())
	if client.limiter == nil {
		t.Fatal("nil limiter must default to a real one, not disable gating")
	}
	if client.limiter.Limit() != 10 || client.limiter.Burst() != 30 {
		t.Errorf("default limiter = %v/%d, want 10/30", client.limiter.Limit(), client.limiter.Burst())
	}
}

func TestGenerateRateLimitsRetryAttempts(t *testing.T) {
	mock := testutil.NewMockModel("Recovered answer.")
	mock.QueueError(errors.New("503 overloaded"))
	mock.QueueError(errors.New("503 overloaded"))
	mock.Queue("Recovered answer.")

	g := genkit.Init(context.Background())
	model := mock.Register(g)

	// Burst 1 forces each retry attempt through the limiter's wait.
	limiter := rate.NewLimiter(rate.Every(25*time.Millisecond), 1)
	client := NewClient(g, model, RetryPolicy{MaxAttempts: 3, BackoffBase: 2 * time.Second}, limiter, log.NewNop())
	client.sleep = func(context.Context, time.Duration) error { return nil }

	start := time.Now()
	got, err := client.Generate(context.Background(), "analyze this")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Recovered answer." {
		t.Errorf("response = %q", got)
	}
	if mock.Calls() != 3 {
		t.Errorf("calls = %d, want 3", mock.Calls())
	}
	// Attempts 2 and 3 each had to wait out the limiter's refill interval.
	if elapsed < 40*time.Millisecond {
		t.Errorf("elapsed = %v, expected at least 40ms of limiter gating", elapsed)
	}
}

func TestGenerateRateLimitWaitFailure(t *testing.T) {
	mock := testutil.NewMockModel("never reached")
	g := genkit.Init(context.Background())
	model := mock.Register(g)

	// Burst 0 makes Wait fail without sleeping.
	limiter := rate.NewLimiter(rate.Every(time.Second), 0)
	client := NewClient(g, model, DefaultRetryPolicy(), limiter, log.NewNop())

	_, err := client.Generate(context.Background(), "analyze this")
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected ErrUnknown, got %v", err)
	}
	if mock.Calls() != 0 {
		t.Errorf("calls = %d, want 0 (gated before the model)", mock.Calls())
	}
}

func TestSleepCtxHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if err := sleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Errorf("short sleep should succeed, got %v", err)
	}
}

func TestUserMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrOverloaded, msgOverloaded},
		{ErrServerFailure, msgServer},
		{ErrUnknown, msgUnknown},
		{errors.New("anything else"), msgUnknown},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	overloaded := []string{
		"503 Service Unavailable",
		"the model is OVERLOADED",
		"429 Too Many Requests",
		"resource exhausted",
	}
	for _, s := range overloaded {
		if !overloadedError(errors.New(s)) {
			t.Errorf("%q should classify as overloaded", s)
		}
	}

	server := []string{"500 boom", "502 bad gateway", "504 gateway timeout"}
	for _, s := range server {
		if !serverError(errors.New(s)) {
			t.Errorf("%q should classify as server error", s)
		}
	}

	if overloadedError(errors.New("parse failure")) || serverError(errors.New("parse failure")) {
		t.Error("generic errors must not match either class")
	}
}
