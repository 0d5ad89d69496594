package integration

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncLog Entity
// ---------------------------------------------------------------------------

// SyncEntityType names the kind of entity a sync attempt touched.
type SyncEntityType string

const (
	SyncEntityProduct SyncEntityType = "product"
	SyncEntityOrder   SyncEntityType = "order"
)

// SyncAction names what a sync attempt tried to do.
type SyncAction string

const (
	// Webhook actions mirror the delivery topic: a products/update
	// webhook logs webhook_update even when the upsert had to create
	// the product, because the action records what the platform asked
	// for, not how the store answered.
	ActionWebhookCreate SyncAction = "webhook_create"
	ActionWebhookUpdate SyncAction = "webhook_update"
	ActionWebhookDelete SyncAction = "webhook_delete"
	ActionPullSync      SyncAction = "pull_sync"
	ActionPush          SyncAction = "push"
)

// ActionForTopic maps a webhook topic onto the sync action it records.
func ActionForTopic(topic WebhookTopic) SyncAction {
	switch topic {
	case TopicProductCreate, TopicOrderCreate:
		return ActionWebhookCreate
	case TopicProductDelete:
		return ActionWebhookDelete
	default:
		return ActionWebhookUpdate
	}
}

// SyncLogStatus is the outcome of one sync attempt.
type SyncLogStatus string

const (
	SyncLogStatusSuccess SyncLogStatus = "success"
	SyncLogStatusFailed  SyncLogStatus = "failed"
	SyncLogStatusSkipped SyncLogStatus = "skipped"
)

// SyncLog is the append-only audit record of one reconciliation attempt.
// Exactly one log is written per attempt, success or failure. Logs are
// never updated or deleted.
type SyncLog struct {
	ID             uuid.UUID
	IntegrationID  uuid.UUID
	OrganizationID uuid.UUID
	EntityType     SyncEntityType
	// EntityID is the external id of the entity as the platform knows it
	// for pulled entities, or the internal product id for pushes. It
	// stays meaningful even when reconciliation failed before an
	// internal entity existed.
	EntityID     string
	Action       SyncAction
	Status       SyncLogStatus
	ErrorMessage string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// NewSyncLog builds a log entry stamped now.
func NewSyncLog(integrationID, organizationID uuid.UUID, entityType SyncEntityType, entityID string, action SyncAction, status SyncLogStatus) *SyncLog {
	return &SyncLog{
		ID:             uuid.New(),
		IntegrationID:  integrationID,
		OrganizationID: organizationID,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		Status:         status,
		CreatedAt:      time.Now(),
	}
}

// WithError attaches a failure message and marks the entry failed.
func (l *SyncLog) WithError(err error) *SyncLog {
	l.Status = SyncLogStatusFailed
	if err != nil {
		l.ErrorMessage = err.Error()
	}
	return l
}

// WithMetadata attaches structured context to the entry.
func (l *SyncLog) WithMetadata(md map[string]any) *SyncLog {
	l.Metadata = md
	return l
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// SyncLogFilter narrows a sync log listing. Nil fields match everything.
type SyncLogFilter struct {
	IntegrationID *uuid.UUID
	EntityType    *SyncEntityType
	Status        *SyncLogStatus
	Since         *time.Time
	Limit         int
	Offset        int
}

// SyncLogRepository persists the append-only sync audit trail.
type SyncLogRepository interface {
	// Append writes one log entry. Entries are immutable once written.
	Append(ctx context.Context, log *SyncLog) error

	// List returns entries for an organization, newest first, with the
	// total count before pagination.
	List(ctx context.Context, organizationID uuid.UUID, filter SyncLogFilter) ([]*SyncLog, int64, error)
}
