package config

import (
	"fmt"
	"time"
)

// Validation bounds. The retry and retrieval knobs are operator-facing, so the
// ranges are deliberately wide; validation exists to catch typos (negative
// distances, zero attempts), not to enforce policy.
const (
	maxTopK        = 50
	maxTurnsLimit  = 100
	maxAttemptsCap = 10
	maxBackoffBase = time.Minute
)

// Validate checks the configuration for invalid values.
// It returns a sentinel error (wrapped with detail) for the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidEmbedderModel)
	}

	if c.MaxDistance <= 0 || c.MaxDistance > 2 {
		return fmt.Errorf("%w: must be in (0, 2], got %v", ErrInvalidMaxDistance, c.MaxDistance)
	}
	if c.TopK < 1 || c.TopK > maxTopK {
		return fmt.Errorf("%w: must be in [1, %d], got %d", ErrInvalidTopK, maxTopK, c.TopK)
	}
	if c.MaxTurns < 1 || c.MaxTurns > maxTurnsLimit {
		return fmt.Errorf("%w: must be in [1, %d], got %d", ErrInvalidMaxTurns, maxTurnsLimit, c.MaxTurns)
	}
	if c.MaxAttempts < 1 || c.MaxAttempts > maxAttemptsCap {
		return fmt.Errorf("%w: must be in [1, %d], got %d", ErrInvalidMaxAttempts, maxAttemptsCap, c.MaxAttempts)
	}
	if c.BackoffBase <= 0 || c.BackoffBase > maxBackoffBase {
		return fmt.Errorf("%w: must be in (0, %v], got %v", ErrInvalidBackoffBase, maxBackoffBase, c.BackoffBase)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be in [1, 65535], got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	return nil
}
