package storage

import (
	"context"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
)

// NoopPayloadArchive discards payloads. Used when archiving is disabled
// in configuration.
type NoopPayloadArchive struct{}

// NewNoopPayloadArchive creates a no-op archive
func NewNoopPayloadArchive() *NoopPayloadArchive {
	return &NoopPayloadArchive{}
}

// ArchiveWebhook discards the payload
func (*NoopPayloadArchive) ArchiveWebhook(context.Context, string, integration.PlatformCode, string, string, []byte) error {
	return nil
}

// Ensure NoopPayloadArchive implements PayloadArchive
var _ appsync.PayloadArchive = (*NoopPayloadArchive)(nil)
