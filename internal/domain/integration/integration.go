package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	ErrIntegrationInvalidOrganization = errors.New("integration: invalid organization ID")
	ErrIntegrationInvalidPlatform     = errors.New("integration: invalid platform code")
	ErrIntegrationInvalidShopDomain   = errors.New("integration: shop domain is required")
)

// ---------------------------------------------------------------------------
// SyncStatus represents the integration's synchronization state
// ---------------------------------------------------------------------------

// SyncStatus is the coarse state machine guarding manual sync runs.
// Transitions: idle -> in_progress -> idle on success, in_progress ->
// error on failure. Webhook reconciliation bypasses this state entirely.
type SyncStatus string

const (
	SyncStatusIdle       SyncStatus = "idle"
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusError      SyncStatus = "error"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusIdle, SyncStatusInProgress, SyncStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// CanStartSync returns true if a new sync run may begin from this state.
// Both idle and error are startable; error only records how the last run
// ended.
func (s SyncStatus) CanStartSync() bool {
	return s == SyncStatusIdle || s == SyncStatusError
}

// ---------------------------------------------------------------------------
// Integration Entity
// ---------------------------------------------------------------------------

// IntegrationConfig holds non-secret integration settings.
type IntegrationConfig struct {
	// WebhookSecret is the shared secret used to verify webhook
	// signatures. Empty means signature verification is disabled for
	// this integration.
	WebhookSecret string `json:"webhookSecret"`

	// Settings holds platform-specific options with no dedicated field.
	Settings map[string]string `json:"settings,omitempty"`
}

// Integration is a tenant's connection to one commerce platform.
type Integration struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Platform       PlatformCode
	Name           string
	Active         bool
	Credentials    Credentials
	Config         IntegrationConfig
	SyncStatus     SyncStatus
	LastSyncAt     *time.Time
	LastSyncError  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewIntegration creates an integration in the idle state.
func NewIntegration(organizationID uuid.UUID, platform PlatformCode, name string, creds Credentials, config IntegrationConfig) (*Integration, error) {
	if organizationID == uuid.Nil {
		return nil, ErrIntegrationInvalidOrganization
	}
	if !platform.IsValid() {
		return nil, ErrIntegrationInvalidPlatform
	}
	if creds.ShopDomain == "" {
		return nil, ErrIntegrationInvalidShopDomain
	}

	now := time.Now()
	return &Integration{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		Platform:       platform,
		Name:           name,
		Active:         true,
		Credentials:    creds,
		Config:         config,
		SyncStatus:     SyncStatusIdle,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// WebhookSecret returns the configured webhook secret
func (i *Integration) WebhookSecret() string {
	return i.Config.WebhookSecret
}

// ---------------------------------------------------------------------------
// Repository Interface
// ---------------------------------------------------------------------------

// IntegrationRepository persists integrations.
type IntegrationRepository interface {
	// Save persists a new integration
	Save(ctx context.Context, it *Integration) error

	// Update persists changes to an existing integration
	Update(ctx context.Context, it *Integration) error

	// FindByID returns an integration by id within an organization.
	// Returns ErrIntegrationNotFound if absent.
	FindByID(ctx context.Context, organizationID, id uuid.UUID) (*Integration, error)

	// FindByShopDomain returns the integration for a platform shop.
	// Webhooks identify their tenant this way. Returns
	// ErrIntegrationNotFound if absent.
	FindByShopDomain(ctx context.Context, platform PlatformCode, shopDomain string) (*Integration, error)

	// ListByOrganization returns all integrations of an organization
	ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*Integration, error)

	// UpdateSyncStatusIf atomically moves SyncStatus from one value to
	// another. Returns false without error when the stored status did not
	// match, which is how concurrent sync triggers lose the race.
	UpdateSyncStatusIf(ctx context.Context, id uuid.UUID, from, to SyncStatus) (bool, error)

	// RecordSyncOutcome sets the terminal state of a sync run: status,
	// completion time and the last error message (empty on success).
	RecordSyncOutcome(ctx context.Context, id uuid.UUID, status SyncStatus, finishedAt time.Time, errMsg string) error
}
