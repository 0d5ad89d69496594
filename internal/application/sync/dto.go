// Package sync contains the application services of the reconciliation
// engine: webhook processing, entity reconciliation and manual sync
// orchestration.
package sync

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

var (
	ErrInvalidScope     = errors.New("sync: invalid sync scope")
	ErrInvalidDirection = errors.New("sync: invalid sync direction")
)

// ---------------------------------------------------------------------------
// Manual sync request
// ---------------------------------------------------------------------------

// Scope selects which entity kinds a manual sync run covers.
type Scope string

const (
	ScopeProducts Scope = "products"
	ScopeOrders   Scope = "orders"
	ScopeBoth     Scope = "both"
)

// IsValid returns true if the scope is valid
func (s Scope) IsValid() bool {
	switch s {
	case ScopeProducts, ScopeOrders, ScopeBoth:
		return true
	default:
		return false
	}
}

// IncludesProducts returns true if the scope covers products
func (s Scope) IncludesProducts() bool {
	return s == ScopeProducts || s == ScopeBoth
}

// IncludesOrders returns true if the scope covers orders
func (s Scope) IncludesOrders() bool {
	return s == ScopeOrders || s == ScopeBoth
}

// Direction selects which way entity data flows in a manual sync run.
type Direction string

const (
	DirectionFromPlatform  Direction = "from_platform"
	DirectionToPlatform    Direction = "to_platform"
	DirectionBidirectional Direction = "bidirectional"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionFromPlatform, DirectionToPlatform, DirectionBidirectional:
		return true
	default:
		return false
	}
}

// Pulls returns true if the direction imports from the platform
func (d Direction) Pulls() bool {
	return d == DirectionFromPlatform || d == DirectionBidirectional
}

// Pushes returns true if the direction exports to the platform
func (d Direction) Pushes() bool {
	return d == DirectionToPlatform || d == DirectionBidirectional
}

// RunRequest is a manual sync trigger for one integration.
type RunRequest struct {
	OrganizationID uuid.UUID
	IntegrationID  uuid.UUID
	Scope          Scope
	Direction      Direction
}

// Validate checks the request fields.
func (r *RunRequest) Validate() error {
	if !r.Scope.IsValid() {
		return ErrInvalidScope
	}
	if !r.Direction.IsValid() {
		return ErrInvalidDirection
	}
	return nil
}

// ---------------------------------------------------------------------------
// Sync run result
// ---------------------------------------------------------------------------

// EntitySummary aggregates reconciliation outcomes for one entity kind.
type EntitySummary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Add merges a single reconciliation outcome into the summary.
func (s *EntitySummary) Add(outcome ReconcileOutcome, err error) {
	switch {
	case err != nil:
		s.Failed++
		s.Errors = append(s.Errors, err.Error())
	case outcome == OutcomeCreated:
		s.Created++
	case outcome == OutcomeUpdated:
		s.Updated++
	}
}

// Total returns the number of items the summary covers.
func (s *EntitySummary) Total() int {
	return s.Created + s.Updated + s.Failed
}

// RunResult is the aggregate outcome of one manual sync run.
type RunResult struct {
	IntegrationID uuid.UUID     `json:"integrationId"`
	Scope         Scope         `json:"scope"`
	Direction     Direction     `json:"direction"`
	Products      EntitySummary `json:"products"`
	Orders        EntitySummary `json:"orders"`
	StartedAt     time.Time     `json:"startedAt"`
	FinishedAt    time.Time     `json:"finishedAt"`
	// Aborted is set when the run stopped early: a fetch failure or a
	// cancelled context. Per-item failures do not abort a run.
	Aborted bool   `json:"aborted"`
	Error   string `json:"error,omitempty"`
}

// ---------------------------------------------------------------------------
// Webhook delivery
// ---------------------------------------------------------------------------

// WebhookDelivery is one inbound webhook as the HTTP layer received it.
// Topic is the platform's native topic string; the adapter translates it.
type WebhookDelivery struct {
	Platform   integration.PlatformCode
	ShopDomain string
	Topic      string
	EventID    string
	Signature  string
	RawBody    []byte
}

// WebhookResult reports what processing a delivery did.
type WebhookResult struct {
	Topic     integration.WebhookTopic `json:"topic"`
	Outcome   ReconcileOutcome         `json:"outcome"`
	Duplicate bool                     `json:"duplicate"`
}
