package dto

import (
	"time"

	"github.com/google/uuid"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Manual sync trigger
// ---------------------------------------------------------------------------

// SyncRunRequest is the body of a manual sync trigger.
type SyncRunRequest struct {
	Scope     string `json:"scope" binding:"required,oneof=products orders both"`
	Direction string `json:"direction" binding:"required,oneof=from_platform to_platform bidirectional"`
}

// ToRunRequest builds the application request for one integration.
func (r *SyncRunRequest) ToRunRequest(organizationID, integrationID uuid.UUID) appsync.RunRequest {
	return appsync.RunRequest{
		OrganizationID: organizationID,
		IntegrationID:  integrationID,
		Scope:          appsync.Scope(r.Scope),
		Direction:      appsync.Direction(r.Direction),
	}
}

// ---------------------------------------------------------------------------
// Sync log listing
// ---------------------------------------------------------------------------

// SyncLogListRequest carries the query parameters of a sync log listing.
type SyncLogListRequest struct {
	ListRequest
	EntityType string     `form:"entity_type" binding:"omitempty,oneof=product order"`
	Status     string     `form:"status" binding:"omitempty,oneof=success failed skipped"`
	Since      *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ToFilter converts the request into a domain filter scoped to one integration.
func (r *SyncLogListRequest) ToFilter(integrationID uuid.UUID) integration.SyncLogFilter {
	r.Normalize()
	filter := integration.SyncLogFilter{
		IntegrationID: &integrationID,
		Since:         r.Since,
		Limit:         r.PageSize,
		Offset:        (r.Page - 1) * r.PageSize,
	}
	if r.EntityType != "" {
		et := integration.SyncEntityType(r.EntityType)
		filter.EntityType = &et
	}
	if r.Status != "" {
		st := integration.SyncLogStatus(r.Status)
		filter.Status = &st
	}
	return filter
}

// SyncLogResponse represents one audit entry in API responses.
type SyncLogResponse struct {
	ID            uuid.UUID      `json:"id"`
	IntegrationID uuid.UUID      `json:"integration_id"`
	EntityType    string         `json:"entity_type"`
	EntityID      string         `json:"entity_id,omitempty"`
	Action        string         `json:"action"`
	Status        string         `json:"status"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ToSyncLogResponse converts a domain SyncLog to a response DTO
func ToSyncLogResponse(l *integration.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		ID:            l.ID,
		IntegrationID: l.IntegrationID,
		EntityType:    string(l.EntityType),
		EntityID:      l.EntityID,
		Action:        string(l.Action),
		Status:        string(l.Status),
		ErrorMessage:  l.ErrorMessage,
		Metadata:      l.Metadata,
		CreatedAt:     l.CreatedAt,
	}
}

// ToSyncLogResponses converts a slice of domain SyncLogs to response DTOs
func ToSyncLogResponses(logs []*integration.SyncLog) []SyncLogResponse {
	responses := make([]SyncLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = ToSyncLogResponse(l)
	}
	return responses
}

// ---------------------------------------------------------------------------
// Webhook acknowledgement
// ---------------------------------------------------------------------------

// WebhookAckResponse is what a platform's webhook dispatcher sees. Platforms
// only care about the status code; the body exists for operators reading
// delivery logs.
type WebhookAckResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}
