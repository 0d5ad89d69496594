package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/infrastructure/persistence/models"
)

// GormSyncLogRepository implements SyncLogRepository using GORM. The log
// is append-only; there are no update or delete paths.
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append writes one log entry
func (r *GormSyncLogRepository) Append(ctx context.Context, log *integration.SyncLog) error {
	var model models.SyncLogModel
	model.FromDomain(log)
	return r.db.WithContext(ctx).Create(&model).Error
}

// List returns entries for an organization, newest first, with the total
// count before pagination.
func (r *GormSyncLogRepository) List(ctx context.Context, organizationID uuid.UUID, filter integration.SyncLogFilter) ([]*integration.SyncLog, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SyncLogModel{}).
		Where("organization_id = ?", organizationID)

	if filter.IntegrationID != nil {
		query = query.Where("integration_id = ?", *filter.IntegrationID)
	}
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	var rows []models.SyncLogModel
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]*integration.SyncLog, 0, len(rows))
	for i := range rows {
		result = append(result, rows[i].ToDomain())
	}
	return result, total, nil
}

// Ensure GormSyncLogRepository implements SyncLogRepository
var _ integration.SyncLogRepository = (*GormSyncLogRepository)(nil)
