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

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save persists a new order together with its items
func (r *GormOrderRepository) Save(ctx context.Context, o *integration.Order) error {
	var model models.OrderModel
	model.FromDomain(o)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

// Update persists changes to an existing order. Items are replaced only
// when asked; webhook updates leave them alone by default.
func (r *GormOrderRepository) Update(ctx context.Context, o *integration.Order, replaceItems bool) error {
	var model models.OrderModel
	model.FromDomain(o)
	model.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(&model).Error; err != nil {
		return err
	}
	if !replaceItems {
		return nil
	}

	if err := r.db.WithContext(ctx).
		Where("order_id = ?", o.ID).
		Delete(&models.OrderItemModel{}).Error; err != nil {
		return err
	}
	return r.insertItems(ctx, o.ID, o.Items)
}

// Delete removes an order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		Delete(&models.OrderModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrOrderNotFound
	}
	return r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&models.OrderItemModel{}).Error
}

// FindByID finds an order with items by internal id
func (r *GormOrderRepository) FindByID(ctx context.Context, organizationID, id uuid.UUID) (*integration.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", organizationID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return r.withItems(ctx, model.ToDomain())
}

// FindByPlatformOrderID finds an order by its platform key
func (r *GormOrderRepository) FindByPlatformOrderID(ctx context.Context, organizationID uuid.UUID, platform integration.PlatformCode, platformOrderID string) (*integration.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND platform = ? AND platform_order_id = ?",
			organizationID, platform, platformOrderID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrOrderNotFound
		}
		return nil, err
	}
	return r.withItems(ctx, model.ToDomain())
}

func (r *GormOrderRepository) insertItems(ctx context.Context, orderID uuid.UUID, items []integration.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.OrderItemModel, 0, len(items))
	for _, item := range items {
		var model models.OrderItemModel
		model.FromDomain(item)
		if model.ID == uuid.Nil {
			model.ID = uuid.New()
		}
		model.OrderID = orderID
		rows = append(rows, model)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *GormOrderRepository) withItems(ctx context.Context, o *integration.Order) (*integration.Order, error) {
	var rows []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", o.ID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	o.Items = make([]integration.OrderItem, 0, len(rows))
	for i := range rows {
		o.Items = append(o.Items, rows[i].ToDomain())
	}
	return o, nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ integration.OrderRepository = (*GormOrderRepository)(nil)
