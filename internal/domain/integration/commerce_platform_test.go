package integration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformCodeIsValid(t *testing.T) {
	assert.True(t, PlatformCodeShopify.IsValid())
	assert.True(t, PlatformCodeWooCommerce.IsValid())
	assert.False(t, PlatformCode("MAGENTO").IsValid())
	assert.False(t, PlatformCode("").IsValid())
}

func TestWebhookTopicClassification(t *testing.T) {
	assert.True(t, TopicProductCreate.IsProductTopic())
	assert.False(t, TopicProductCreate.IsOrderTopic())
	assert.True(t, TopicOrderCancel.IsOrderTopic())
	assert.False(t, TopicOrderCancel.IsProductTopic())
	assert.False(t, WebhookTopic("customer.create").IsValid())
}

func TestPullRequestValidate(t *testing.T) {
	tests := []struct {
		name     string
		req      PullRequest
		wantPage int
		wantSize int
	}{
		{"defaults applied", PullRequest{}, 1, DefaultPageSize},
		{"negative page clamped", PullRequest{Page: -3, PageSize: 20}, 1, 20},
		{"oversized page clamped", PullRequest{Page: 2, PageSize: 10000}, 2, MaxPageSize},
		{"in range untouched", PullRequest{Page: 5, PageSize: 100}, 5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Validate()
			assert.Equal(t, tt.wantPage, tt.req.Page)
			assert.Equal(t, tt.wantSize, tt.req.PageSize)
		})
	}
}

func TestNewIntegration(t *testing.T) {
	orgID := uuid.New()
	creds := Credentials{ShopDomain: "acme.myshopify.com", AccessToken: "shpat_test"}

	it, err := NewIntegration(orgID, PlatformCodeShopify, "Acme Shopify", creds, IntegrationConfig{WebhookSecret: "whsec"})
	require.NoError(t, err)
	assert.Equal(t, SyncStatusIdle, it.SyncStatus)
	assert.True(t, it.Active)
	assert.Equal(t, "whsec", it.WebhookSecret())

	_, err = NewIntegration(uuid.Nil, PlatformCodeShopify, "x", creds, IntegrationConfig{})
	assert.ErrorIs(t, err, ErrIntegrationInvalidOrganization)

	_, err = NewIntegration(orgID, PlatformCode("EBAY"), "x", creds, IntegrationConfig{})
	assert.ErrorIs(t, err, ErrIntegrationInvalidPlatform)

	_, err = NewIntegration(orgID, PlatformCodeShopify, "x", Credentials{}, IntegrationConfig{})
	assert.ErrorIs(t, err, ErrIntegrationInvalidShopDomain)
}

func TestSyncStatusCanStartSync(t *testing.T) {
	assert.True(t, SyncStatusIdle.CanStartSync())
	assert.True(t, SyncStatusError.CanStartSync())
	assert.False(t, SyncStatusInProgress.CanStartSync())
}
