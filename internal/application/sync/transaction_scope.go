package sync

import (
	"context"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// TransactionScope provides transactional access to the reconciliation
// repositories. When a function is executed within a transaction scope,
// all repository operations are part of the same database transaction and
// commit or roll back atomically.
//
// The reconciler relies on this so an entity write and its sync log entry
// land together: a partially-applied webhook never leaves an entity
// without its audit record.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the reconciliation
// repositories within a transaction. All repositories returned share the
// same underlying database transaction.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() integration.ProductRepository
	// OrderRepo returns the order repository scoped to the current transaction
	OrderRepo() integration.OrderRepository
	// SyncLogRepo returns the sync log repository scoped to the current transaction
	SyncLogRepo() integration.SyncLogRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	productRepo integration.ProductRepository
	orderRepo   integration.OrderRepository
	syncLogRepo integration.SyncLogRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo integration.ProductRepository,
	orderRepo integration.OrderRepository,
	syncLogRepo integration.SyncLogRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		syncLogRepo: syncLogRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() integration.ProductRepository {
	return s.productRepo
}

// OrderRepo returns the order repository.
func (s *NoOpTransactionScope) OrderRepo() integration.OrderRepository {
	return s.orderRepo
}

// SyncLogRepo returns the sync log repository.
func (s *NoOpTransactionScope) SyncLogRepo() integration.SyncLogRepository {
	return s.syncLogRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
