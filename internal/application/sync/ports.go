package sync

import (
	"context"
	"time"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// PayloadArchive retains raw webhook bodies for diagnosis and replay.
// Archiving is best effort: an archive failure is logged and never fails
// the delivery.
type PayloadArchive interface {
	// ArchiveWebhook stores one raw delivery body under a key derived
	// from the delivery coordinates.
	ArchiveWebhook(ctx context.Context, organizationID string, platform integration.PlatformCode, topic, eventID string, body []byte) error
}

// Metrics records sync pipeline measurements. The telemetry layer
// provides the real implementation; services take the interface so tests
// can run without a meter.
type Metrics interface {
	// RecordWebhook counts one processed webhook delivery
	RecordWebhook(ctx context.Context, platform integration.PlatformCode, topic integration.WebhookTopic, result string)

	// RecordEntitySync counts one entity reconciliation attempt
	RecordEntitySync(ctx context.Context, platform integration.PlatformCode, entityType integration.SyncEntityType, result string)

	// RecordSyncRun records the duration and result of a manual sync run
	RecordSyncRun(ctx context.Context, platform integration.PlatformCode, result string, d time.Duration)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) RecordWebhook(context.Context, integration.PlatformCode, integration.WebhookTopic, string) {
}
func (NopMetrics) RecordEntitySync(context.Context, integration.PlatformCode, integration.SyncEntityType, string) {
}
func (NopMetrics) RecordSyncRun(context.Context, integration.PlatformCode, string, time.Duration) {}

var _ Metrics = NopMetrics{}
