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

// GormIntegrationRepository implements IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// Save persists a new integration
func (r *GormIntegrationRepository) Save(ctx context.Context, it *integration.Integration) error {
	var model models.IntegrationModel
	model.FromDomain(it)
	return r.db.WithContext(ctx).Create(&model).Error
}

// Update persists changes to an existing integration
func (r *GormIntegrationRepository) Update(ctx context.Context, it *integration.Integration) error {
	var model models.IntegrationModel
	model.FromDomain(it)
	model.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(&model).Error
}

// FindByID finds an integration by id within an organization
func (r *GormIntegrationRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByShopDomain finds the integration for a platform shop. This is the
// webhook tenant lookup and hits the unique (platform, shop_domain) index.
func (r *GormIntegrationRepository) FindByShopDomain(ctx context.Context, platform integration.PlatformCode, shopDomain string) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND shop_domain = ?", platform, shopDomain).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByOrganization returns all integrations of an organization
func (r *GormIntegrationRepository) ListByOrganization(ctx context.Context, organizationID uuid.UUID) ([]*integration.Integration, error) {
	var rows []models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]*integration.Integration, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].ToDomain())
	}
	return result, nil
}

// UpdateSyncStatusIf atomically moves sync_status from one value to
// another. The conditional update is the concurrency guard: of two
// concurrent triggers only one sees RowsAffected == 1.
func (r *GormIntegrationRepository) UpdateSyncStatusIf(ctx context.Context, id uuid.UUID, from, to integration.SyncStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.IntegrationModel{}).
		Where("id = ? AND sync_status = ?", id, from).
		Updates(map[string]any{
			"sync_status": to,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RecordSyncOutcome sets the terminal state of a sync run
func (r *GormIntegrationRepository) RecordSyncOutcome(ctx context.Context, id uuid.UUID, status integration.SyncStatus, finishedAt time.Time, errMsg string) error {
	result := r.db.WithContext(ctx).
		Model(&models.IntegrationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sync_status":     status,
			"last_sync_at":    finishedAt,
			"last_sync_error": errMsg,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrIntegrationNotFound
	}
	return nil
}

// Ensure GormIntegrationRepository implements IntegrationRepository
var _ integration.IntegrationRepository = (*GormIntegrationRepository)(nil)
