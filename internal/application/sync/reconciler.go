package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Reconcile outcomes
// ---------------------------------------------------------------------------

// ReconcileOutcome says what a reconciliation attempt did to the store.
type ReconcileOutcome string

const (
	OutcomeCreated ReconcileOutcome = "created"
	OutcomeUpdated ReconcileOutcome = "updated"
	OutcomeDeleted ReconcileOutcome = "deleted"
	// OutcomeNoop covers attempts that had nothing to do, such as
	// deleting an entity that was never imported.
	OutcomeNoop ReconcileOutcome = "noop"
)

// ---------------------------------------------------------------------------
// EntityReconciler
// ---------------------------------------------------------------------------

// ReconcilerConfig holds reconciliation policy knobs.
type ReconcilerConfig struct {
	// ReplaceOrderItemsOnUpdate makes an order re-sync rebuild the stored
	// line items from the incoming payload. When false, an update only
	// overwrites the order's own fields and items keep their first-import
	// shape.
	ReplaceOrderItemsOnUpdate bool
}

// EntityReconciler applies normalized platform entities to the internal
// store. Every attempt is idempotent: entities are keyed by
// (organization, platform, external id), so a redelivered payload
// converges to the same row instead of duplicating it. Each attempt
// writes exactly one sync log entry; entity write and success log share
// a transaction, failure logs are written after rollback.
type EntityReconciler struct {
	scope   TransactionScope
	logRepo integration.SyncLogRepository
	metrics Metrics
	logger  *zap.Logger
	cfg     ReconcilerConfig
}

// NewEntityReconciler creates a reconciler. logRepo must not be bound to
// the scope's transactions; it records failures whose transaction rolled
// back.
func NewEntityReconciler(
	scope TransactionScope,
	logRepo integration.SyncLogRepository,
	metrics Metrics,
	logger *zap.Logger,
	cfg ReconcilerConfig,
) *EntityReconciler {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityReconciler{
		scope:   scope,
		logRepo: logRepo,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ReconcileProduct upserts a product from its normalized form. The
// action records the caller's intent in the sync log; it does not change
// the upsert semantics.
func (r *EntityReconciler) ReconcileProduct(ctx context.Context, it *integration.Integration, n *integration.NormalizedProduct, action integration.SyncAction) (ReconcileOutcome, error) {
	if n == nil || n.ExternalID == "" {
		return "", r.fail(ctx, it, integration.SyncEntityProduct, externalID(n), action, integration.ErrWebhookInvalidPayload)
	}

	var outcome ReconcileOutcome
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.ProductRepo().FindByExternalID(ctx, it.OrganizationID, it.Platform, n.ExternalID)
		switch {
		case err == nil:
			existing.ApplyNormalized(n)
			existing.MarkSynced(it.Platform, n.ExternalID, time.Now())
			if err := repos.ProductRepo().Update(ctx, existing); err != nil {
				return err
			}
			if err := repos.ProductRepo().UpsertPlatformRefs(ctx, existing.ID, buildProductRefs(it, existing.ID, n)); err != nil {
				return err
			}
			outcome = OutcomeUpdated
			return r.appendLog(ctx, repos.SyncLogRepo(), it, integration.SyncEntityProduct, n.ExternalID, action, nil)

		case errors.Is(err, integration.ErrProductNotFound):
			p, err := integration.NewProduct(it.OrganizationID, n.Name)
			if err != nil {
				return err
			}
			p.ApplyNormalized(n)
			p.MarkSynced(it.Platform, n.ExternalID, time.Now())
			if err := repos.ProductRepo().Save(ctx, p); err != nil {
				return err
			}
			if err := repos.ProductRepo().UpsertPlatformRefs(ctx, p.ID, buildProductRefs(it, p.ID, n)); err != nil {
				return err
			}
			outcome = OutcomeCreated
			return r.appendLog(ctx, repos.SyncLogRepo(), it, integration.SyncEntityProduct, n.ExternalID, action, nil)

		default:
			return err
		}
	})
	if err != nil {
		return "", r.fail(ctx, it, integration.SyncEntityProduct, n.ExternalID, action, err)
	}

	r.metrics.RecordEntitySync(ctx, it.Platform, integration.SyncEntityProduct, string(integration.SyncLogStatusSuccess))
	return outcome, nil
}

// DeleteProduct removes a product by its platform id. Deleting an entity
// that was never imported succeeds with a noop outcome; the platform's
// view and ours already agree.
func (r *EntityReconciler) DeleteProduct(ctx context.Context, it *integration.Integration, platformExternalID string) (ReconcileOutcome, error) {
	if platformExternalID == "" {
		return "", r.fail(ctx, it, integration.SyncEntityProduct, "", integration.ActionWebhookDelete, integration.ErrWebhookInvalidPayload)
	}

	outcome := OutcomeNoop
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.ProductRepo().FindByExternalID(ctx, it.OrganizationID, it.Platform, platformExternalID)
		if errors.Is(err, integration.ErrProductNotFound) {
			return r.appendLog(ctx, repos.SyncLogRepo(), it, integration.SyncEntityProduct, platformExternalID, integration.ActionWebhookDelete, nil)
		}
		if err != nil {
			return err
		}
		if err := repos.ProductRepo().Delete(ctx, it.OrganizationID, existing.ID); err != nil {
			return err
		}
		outcome = OutcomeDeleted
		return r.appendLog(ctx, repos.SyncLogRepo(), it, integration.SyncEntityProduct, platformExternalID, integration.ActionWebhookDelete, nil)
	})
	if err != nil {
		return "", r.fail(ctx, it, integration.SyncEntityProduct, platformExternalID, integration.ActionWebhookDelete, err)
	}

	r.metrics.RecordEntitySync(ctx, it.Platform, integration.SyncEntityProduct, string(integration.SyncLogStatusSuccess))
	return outcome, nil
}

// buildProductRefs derives the index rows for a normalized product: one
// product-level ref plus one per variant.
func buildProductRefs(it *integration.Integration, productID uuid.UUID, n *integration.NormalizedProduct) []integration.ProductPlatformRef {
	refs := make([]integration.ProductPlatformRef, 0, len(n.Variants)+1)
	refs = append(refs, integration.ProductPlatformRef{
		ID:             uuid.New(),
		OrganizationID: it.OrganizationID,
		Platform:       it.Platform,
		Kind:           integration.RefKindProduct,
		ExternalID:     n.ExternalID,
		ProductID:      productID,
		CreatedAt:      time.Now(),
	})
	for _, v := range n.Variants {
		if v.ExternalID == "" {
			continue
		}
		refs = append(refs, integration.ProductPlatformRef{
			ID:             uuid.New(),
			OrganizationID: it.OrganizationID,
			Platform:       it.Platform,
			Kind:           integration.RefKindVariant,
			ExternalID:     v.ExternalID,
			ProductID:      productID,
			CreatedAt:      time.Now(),
		})
	}
	return refs
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ReconcileOrder upserts an order from its normalized form. Line items
// resolve to internal products through the variant ref index; a line
// whose variant is unknown is persisted with an empty product reference
// and never fails the order.
func (r *EntityReconciler) ReconcileOrder(ctx context.Context, it *integration.Integration, n *integration.NormalizedOrder, action integration.SyncAction) (ReconcileOutcome, error) {
	if n == nil || n.ExternalID == "" {
		return "", r.fail(ctx, it, integration.SyncEntityOrder, externalOrderID(n), action, integration.ErrWebhookInvalidPayload)
	}

	var outcome ReconcileOutcome
	err := r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.OrderRepo().FindByPlatformOrderID(ctx, it.OrganizationID, it.Platform, n.ExternalID)
		switch {
		case err == nil:
			existing.ApplyNormalized(n)
			if r.cfg.ReplaceOrderItemsOnUpdate {
				items, err := r.resolveItems(ctx, repos, it, existing.ID, n.Items)
				if err != nil {
					return err
				}
				existing.Items = items
			}
			if err := repos.OrderRepo().Update(ctx, existing, r.cfg.ReplaceOrderItemsOnUpdate); err != nil {
				return err
			}
			outcome = OutcomeUpdated
			return r.appendLog(ctx, repos.SyncLogRepo(), it, integration.SyncEntityOrder, n.ExternalID, action, nil)

		case errors.Is(err, integration.ErrOrderNotFound):
			o, err := integration.NewOrder(it.OrganizationID, it.Platform, n.ExternalID)
			if err != nil {
				return err
			}
			o.ApplyNormalized(n)
			items, err := r.resolveItems(ctx, repos, it, o.ID, n.Items)
			if err != nil {
				return err
			}
			o.Items = items
			if err := repos.OrderRepo().Save(ctx, o); err != nil {
				return err
			}
			outcome = OutcomeCreated
			return r.appendLog(ctx, repos.SyncLogRepo(), it, integration.SyncEntityOrder, n.ExternalID, action, nil)

		default:
			return err
		}
	})
	if err != nil {
		return "", r.fail(ctx, it, integration.SyncEntityOrder, n.ExternalID, action, err)
	}

	r.metrics.RecordEntitySync(ctx, it.Platform, integration.SyncEntityOrder, string(integration.SyncLogStatusSuccess))
	return outcome, nil
}

// resolveItems builds order items from normalized lines, resolving each
// variant through the ref index.
func (r *EntityReconciler) resolveItems(ctx context.Context, repos TransactionalRepositories, it *integration.Integration, orderID uuid.UUID, lines []integration.NormalizedOrderItem) ([]integration.OrderItem, error) {
	items := make([]integration.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := integration.OrderItem{
			ID:                uuid.New(),
			OrderID:           orderID,
			ExternalVariantID: line.ExternalVariantID,
			Title:             line.Title,
			SKU:               line.SKU,
			Quantity:          line.Quantity,
			UnitPrice:         line.UnitPrice,
		}
		if line.ExternalVariantID != "" {
			productID, err := repos.ProductRepo().ResolveVariantRef(ctx, it.OrganizationID, it.Platform, line.ExternalVariantID)
			if err != nil {
				return nil, err
			}
			if productID != uuid.Nil {
				id := productID
				item.ProductID = &id
			} else {
				r.logger.Debug("order line references unknown variant",
					zap.String("platform", it.Platform.String()),
					zap.String("variant_id", line.ExternalVariantID))
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Logging helpers
// ---------------------------------------------------------------------------

func (r *EntityReconciler) appendLog(ctx context.Context, repo integration.SyncLogRepository, it *integration.Integration, entityType integration.SyncEntityType, entityID string, action integration.SyncAction, err error) error {
	log := integration.NewSyncLog(it.ID, it.OrganizationID, entityType, entityID, action, integration.SyncLogStatusSuccess)
	if err != nil {
		log.WithError(err)
	}
	log.WithMetadata(map[string]any{"platform": it.Platform.String()})
	return repo.Append(ctx, log)
}

// fail records a failed attempt: one failure log outside the rolled-back
// transaction, a metric, and a wrapped error back to the caller.
func (r *EntityReconciler) fail(ctx context.Context, it *integration.Integration, entityType integration.SyncEntityType, entityID string, action integration.SyncAction, cause error) error {
	r.logger.Warn("reconciliation failed",
		zap.String("platform", it.Platform.String()),
		zap.String("entity_type", string(entityType)),
		zap.String("entity_id", entityID),
		zap.Error(cause))

	if logErr := r.appendLog(ctx, r.logRepo, it, entityType, entityID, action, cause); logErr != nil {
		r.logger.Error("failed to append sync log", zap.Error(logErr))
	}
	r.metrics.RecordEntitySync(ctx, it.Platform, entityType, string(integration.SyncLogStatusFailed))
	return fmt.Errorf("reconcile %s %s: %w", entityType, entityID, cause)
}

func externalID(n *integration.NormalizedProduct) string {
	if n == nil {
		return ""
	}
	return n.ExternalID
}

func externalOrderID(n *integration.NormalizedOrder) string {
	if n == nil {
		return ""
	}
	return n.ExternalID
}
