package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

func storedProduct(t *testing.T, repo *GormProductRepository, orgID uuid.UUID, name string) *integration.Product {
	p, err := integration.NewProduct(orgID, name)
	require.NoError(t, err)
	p.SKU = name
	p.Price = decimal.RequireFromString("19.99")
	p.Stock = 5
	require.NoError(t, repo.Save(context.Background(), p))
	return p
}

func refsFor(p *integration.Product, platform integration.PlatformCode, productExtID string, variantExtIDs ...string) []integration.ProductPlatformRef {
	refs := []integration.ProductPlatformRef{{
		OrganizationID: p.OrganizationID,
		Platform:       platform,
		Kind:           integration.RefKindProduct,
		ExternalID:     productExtID,
		ProductID:      p.ID,
	}}
	for _, v := range variantExtIDs {
		refs = append(refs, integration.ProductPlatformRef{
			OrganizationID: p.OrganizationID,
			Platform:       platform,
			Kind:           integration.RefKindVariant,
			ExternalID:     v,
			ProductID:      p.ID,
		})
	}
	return refs
}

func TestGormProductRepository_ExternalIDResolution(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	p := storedProduct(t, repo, orgID, "Widget")
	require.NoError(t, repo.UpsertPlatformRefs(ctx, p.ID, refsFor(p, integration.PlatformCodeShopify, "123", "9")))

	t.Run("find by external id", func(t *testing.T) {
		found, err := repo.FindByExternalID(ctx, orgID, integration.PlatformCodeShopify, "123")
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
		assert.Equal(t, "19.99", found.Price.String())
		assert.Equal(t, 5, found.Stock)
	})

	t.Run("unknown external id", func(t *testing.T) {
		_, err := repo.FindByExternalID(ctx, orgID, integration.PlatformCodeShopify, "999")
		assert.ErrorIs(t, err, integration.ErrProductNotFound)
	})

	t.Run("external id scoped to organization", func(t *testing.T) {
		_, err := repo.FindByExternalID(ctx, uuid.New(), integration.PlatformCodeShopify, "123")
		assert.ErrorIs(t, err, integration.ErrProductNotFound)
	})

	t.Run("resolve known variant", func(t *testing.T) {
		productID, err := repo.ResolveVariantRef(ctx, orgID, integration.PlatformCodeShopify, "9")
		require.NoError(t, err)
		assert.Equal(t, p.ID, productID)
	})

	t.Run("unknown variant resolves to nil without error", func(t *testing.T) {
		productID, err := repo.ResolveVariantRef(ctx, orgID, integration.PlatformCodeShopify, "404")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, productID)
	})
}

func TestGormProductRepository_UpsertPlatformRefsReplacesSet(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	p := storedProduct(t, repo, orgID, "Widget")
	require.NoError(t, repo.UpsertPlatformRefs(ctx, p.ID, refsFor(p, integration.PlatformCodeShopify, "123", "9", "10")))

	// Variant 10 disappeared from the platform payload.
	require.NoError(t, repo.UpsertPlatformRefs(ctx, p.ID, refsFor(p, integration.PlatformCodeShopify, "123", "9")))

	productID, err := repo.ResolveVariantRef(ctx, orgID, integration.PlatformCodeShopify, "9")
	require.NoError(t, err)
	assert.Equal(t, p.ID, productID)

	gone, err := repo.ResolveVariantRef(ctx, orgID, integration.PlatformCodeShopify, "10")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, gone)
}

func TestGormProductRepository_UpdateOverwrites(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	p := storedProduct(t, repo, orgID, "Widget")
	p.ApplyNormalized(&integration.NormalizedProduct{
		ExternalID: "123",
		Name:       "Widget v2",
		SKU:        "widget-v2",
		Price:      decimal.RequireFromString("24.99"),
		Stock:      2,
		Active:     true,
	})
	require.NoError(t, repo.Update(ctx, p))

	found, err := repo.FindByID(ctx, orgID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", found.Name)
	assert.Equal(t, "24.99", found.Price.String())
	assert.Equal(t, 2, found.Stock)
	assert.Empty(t, found.Description)
}

func TestGormProductRepository_Delete(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	p := storedProduct(t, repo, orgID, "Widget")
	require.NoError(t, repo.UpsertPlatformRefs(ctx, p.ID, refsFor(p, integration.PlatformCodeShopify, "123", "9")))

	require.NoError(t, repo.Delete(ctx, orgID, p.ID))

	_, err := repo.FindByID(ctx, orgID, p.ID)
	assert.ErrorIs(t, err, integration.ErrProductNotFound)

	// Refs go with the product.
	productID, err := repo.ResolveVariantRef(ctx, orgID, integration.PlatformCodeShopify, "9")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, productID)

	t.Run("absent product", func(t *testing.T) {
		err := repo.Delete(ctx, orgID, uuid.New())
		assert.ErrorIs(t, err, integration.ErrProductNotFound)
	})
}

func TestGormProductRepository_ListUnsyncedForPlatform(t *testing.T) {
	db := setupSyncTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()
	orgID := uuid.New()

	synced := storedProduct(t, repo, orgID, "Synced")
	synced.MarkSynced(integration.PlatformCodeWooCommerce, "55", time.Now())
	require.NoError(t, repo.Update(ctx, synced))

	unsynced := storedProduct(t, repo, orgID, "Unsynced")

	// Synced on another platform still counts as unsynced here.
	elsewhere := storedProduct(t, repo, orgID, "Elsewhere")
	elsewhere.MarkSynced(integration.PlatformCodeShopify, "777", time.Now())
	require.NoError(t, repo.Update(ctx, elsewhere))

	list, err := repo.ListUnsyncedForPlatform(ctx, orgID, integration.PlatformCodeWooCommerce, 10)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, unsynced.ID)
	assert.Contains(t, ids, elsewhere.ID)
	assert.NotContains(t, ids, synced.ID)

	t.Run("limit respected", func(t *testing.T) {
		list, err := repo.ListUnsyncedForPlatform(ctx, orgID, integration.PlatformCodeWooCommerce, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
