package persistence

import (
	"context"

	"gorm.io/gorm"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
)

// GormTransactionScope implements the sync TransactionScope using GORM
// transactions, so an entity upsert and its audit log commit or roll
// back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsync.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormSyncRepositories{tx: tx}
		return fn(repos)
	})
}

// gormSyncRepositories provides repositories scoped to one transaction.
type gormSyncRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormSyncRepositories) ProductRepo() integration.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// OrderRepo returns the order repository scoped to the current transaction.
func (r *gormSyncRepositories) OrderRepo() integration.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// SyncLogRepo returns the sync log repository scoped to the current transaction.
func (r *gormSyncRepositories) SyncLogRepo() integration.SyncLogRepository {
	return NewGormSyncLogRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsync.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormSyncRepositories implements TransactionalRepositories
var _ appsync.TransactionalRepositories = (*gormSyncRepositories)(nil)
