package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed delivery IDs to prevent duplicate
// processing. Commerce platforms redeliver webhooks on timeout, so the
// same event ID can arrive more than once.
type IdempotencyStore interface {
	// MarkProcessed marks a delivery as processed with a TTL.
	// Returns true if the delivery was newly marked, false if it was
	// already processed.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a delivery has already been processed
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for webhook deduplication
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed delivery IDs. After this
	// duration the same delivery ID is processed again; reconciliation
	// is idempotent, so a late redelivery is wasted work rather than
	// corruption.
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether deduplication is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default deduplication configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
