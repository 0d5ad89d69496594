package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Save persists a new product
func (r *GormProductRepository) Save(ctx context.Context, p *integration.Product) error {
	var model models.ProductModel
	model.FromDomain(p)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing product
func (r *GormProductRepository) Update(ctx context.Context, p *integration.Product) error {
	var model models.ProductModel
	model.FromDomain(p)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&model).Error
}

// Delete removes a product together with its platform refs
func (r *GormProductRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		Delete(&models.ProductModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrProductNotFound
	}
	return r.db.WithContext(ctx).
		Where("product_id = ?", id).
		Delete(&models.ProductPlatformRefModel{}).Error
}

// FindByID finds a product by internal id within an organization
func (r *GormProductRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*integration.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID resolves a platform product id to the internal product
// through the ref index.
func (r *GormProductRepository) FindByExternalID(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, externalID string) (*integration.Product, error) {
	var ref models.ProductPlatformRefModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND platform = ? AND kind = ? AND external_id = ?",
			organizationID, platform, integration.RefKindProduct, externalID).
		First(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrProductNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, organizationID, ref.ProductID)
}

// ResolveVariantRef resolves a platform variant id to the internal
// product id. Unknown variants return uuid.Nil without error.
func (r *GormProductRepository) ResolveVariantRef(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, externalVariantID string) (uuid.UUID, error) {
	var ref models.ProductPlatformRefModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND platform = ? AND kind = ? AND external_id = ?",
			organizationID, platform, integration.RefKindVariant, externalVariantID).
		First(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return ref.ProductID, nil
}

// UpsertPlatformRefs replaces the refs of a product for one platform.
// Delete-then-insert keeps the set exact when variants disappear from
// the platform payload.
func (r *GormProductRepository) UpsertPlatformRefs(ctx context.Context, productID uuid.UUID, refs []integration.ProductPlatformRef) error {
	if len(refs) == 0 {
		return nil
	}
	platform := refs[0].Platform

	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND platform = ?", productID, platform).
		Delete(&models.ProductPlatformRefModel{}).Error; err != nil {
		return err
	}

	rows := make([]models.ProductPlatformRefModel, 0, len(refs))
	for _, ref := range refs {
		var model models.ProductPlatformRefModel
		model.FromDomain(ref)
		if model.ID == uuid.Nil {
			model.ID = uuid.New()
		}
		if model.CreatedAt.IsZero() {
			model.CreatedAt = time.Now()
		}
		rows = append(rows, model)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ListUnsyncedForPlatform returns products with no synced state on a
// platform, for export runs. The platform_sync blob is authoritative;
// filtering happens here rather than in SQL so the check matches the
// domain's view of the field.
func (r *GormProductRepository) ListUnsyncedForPlatform(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, limit int) ([]*integration.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND active = ?", organizationID, true).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*integration.Product, 0, len(rows))
	for i := range rows {
		p := rows[i].ToDomain()
		if state, ok := p.PlatformSync[platform]; ok && state.Synced {
			continue
		}
		result = append(result, p)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Ensure GormProductRepository implements ProductRepository
var _ integration.ProductRepository = (*GormProductRepository)(nil)
