package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
)

func TestSyncRunRequest_ToRunRequest(t *testing.T) {
	orgID := uuid.New()
	integrationID := uuid.New()

	req := SyncRunRequest{Scope: "both", Direction: "from_platform"}
	runReq := req.ToRunRequest(orgID, integrationID)

	assert.Equal(t, orgID, runReq.OrganizationID)
	assert.Equal(t, integrationID, runReq.IntegrationID)
	assert.Equal(t, appsync.ScopeBoth, runReq.Scope)
	assert.Equal(t, appsync.DirectionFromPlatform, runReq.Direction)
	assert.NoError(t, runReq.Validate())
}

func TestSyncLogListRequest_ToFilter(t *testing.T) {
	integrationID := uuid.New()

	t.Run("defaults applied", func(t *testing.T) {
		req := SyncLogListRequest{}
		filter := req.ToFilter(integrationID)

		require.NotNil(t, filter.IntegrationID)
		assert.Equal(t, integrationID, *filter.IntegrationID)
		assert.Equal(t, 20, filter.Limit)
		assert.Equal(t, 0, filter.Offset)
		assert.Nil(t, filter.EntityType)
		assert.Nil(t, filter.Status)
	})

	t.Run("pagination offset", func(t *testing.T) {
		req := SyncLogListRequest{ListRequest: ListRequest{Page: 3, PageSize: 50}}
		filter := req.ToFilter(integrationID)

		assert.Equal(t, 50, filter.Limit)
		assert.Equal(t, 100, filter.Offset)
	})

	t.Run("entity type and status filters", func(t *testing.T) {
		since := time.Now().Add(-24 * time.Hour)
		req := SyncLogListRequest{
			EntityType: "order",
			Status:     "failed",
			Since:      &since,
		}
		filter := req.ToFilter(integrationID)

		require.NotNil(t, filter.EntityType)
		assert.Equal(t, integration.SyncEntityOrder, *filter.EntityType)
		require.NotNil(t, filter.Status)
		assert.Equal(t, integration.SyncLogStatusFailed, *filter.Status)
		require.NotNil(t, filter.Since)
		assert.Equal(t, since, *filter.Since)
	})
}

func TestToSyncLogResponse(t *testing.T) {
	log := integration.NewSyncLog(uuid.New(), uuid.New(), integration.SyncEntityProduct, "123", integration.ActionWebhookUpdate, integration.SyncLogStatusSuccess)
	log.WithMetadata(map[string]any{"platform": "SHOPIFY"})

	resp := ToSyncLogResponse(log)

	assert.Equal(t, log.ID, resp.ID)
	assert.Equal(t, "product", resp.EntityType)
	assert.Equal(t, "123", resp.EntityID)
	assert.Equal(t, "webhook_update", resp.Action)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "SHOPIFY", resp.Metadata["platform"])
}
