// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go.opentelemetry.io/otel/metric"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
)

// SyncMetrics records measurements for the webhook and sync pipeline:
// delivery counts, per-entity reconciliation outcomes, and manual sync
// run durations.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	webhookTotal    *Counter
	entitySyncTotal *Counter
	syncRunDuration *Histogram
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	sm.webhookTotal, err = NewCounter(
		cfg.Meter,
		"sync_webhook_total",
		"Total number of webhook deliveries processed",
		"{deliveries}",
	)
	if err != nil {
		return nil, err
	}

	sm.entitySyncTotal, err = NewCounter(
		cfg.Meter,
		"sync_entity_total",
		"Total number of entity reconciliation attempts",
		"{entities}",
	)
	if err != nil {
		return nil, err
	}

	sm.syncRunDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "sync_run_duration_seconds",
		Description: "Duration of manual sync runs",
		Unit:        "s",
		Boundaries:  SyncRunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordWebhook counts one processed webhook delivery.
func (sm *SyncMetrics) RecordWebhook(ctx context.Context, platform integration.PlatformCode, topic integration.WebhookTopic, result string) {
	sm.webhookTotal.Inc(ctx,
		AttrPlatform.String(string(platform)),
		AttrWebhookTopic.String(string(topic)),
		AttrResult.String(result),
	)
}

// RecordEntitySync counts one entity reconciliation attempt.
func (sm *SyncMetrics) RecordEntitySync(ctx context.Context, platform integration.PlatformCode, entityType integration.SyncEntityType, result string) {
	sm.entitySyncTotal.Inc(ctx,
		AttrPlatform.String(string(platform)),
		AttrEntityType.String(string(entityType)),
		AttrResult.String(result),
	)
}

// RecordSyncRun records the duration and result of a manual sync run.
func (sm *SyncMetrics) RecordSyncRun(ctx context.Context, platform integration.PlatformCode, result string, d time.Duration) {
	sm.syncRunDuration.RecordDuration(ctx, d,
		AttrPlatform.String(string(platform)),
		AttrResult.String(result),
	)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Ensure SyncMetrics implements the application metrics port
var _ appsync.Metrics = (*SyncMetrics)(nil)
