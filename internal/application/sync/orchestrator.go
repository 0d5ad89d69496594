package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// OrchestratorConfig holds manual sync run settings.
type OrchestratorConfig struct {
	// PageSize is the page size requested from platform fetches.
	PageSize int
	// MaxPages bounds a single run. Zero means no bound.
	MaxPages int
	// PushBatchSize bounds how many unsynced products one export run
	// picks up.
	PushBatchSize int
}

func (c *OrchestratorConfig) applyDefaults() {
	if c.PageSize <= 0 {
		c.PageSize = integration.DefaultPageSize
	}
	if c.PushBatchSize <= 0 {
		c.PushBatchSize = 500
	}
}

// SyncOrchestrator drives manual sync runs. At most one run per
// integration is in flight at a time, enforced by an atomic
// status transition on the integration row rather than process-local
// locking, so the guard holds across replicas.
type SyncOrchestrator struct {
	registry        integration.PlatformRegistry
	integrationRepo integration.IntegrationRepository
	productRepo     integration.ProductRepository
	logRepo         integration.SyncLogRepository
	reconciler      *EntityReconciler
	metrics         Metrics
	logger          *zap.Logger
	cfg             OrchestratorConfig
}

// NewSyncOrchestrator creates a sync orchestrator.
func NewSyncOrchestrator(
	registry integration.PlatformRegistry,
	integrationRepo integration.IntegrationRepository,
	productRepo integration.ProductRepository,
	logRepo integration.SyncLogRepository,
	reconciler *EntityReconciler,
	metrics Metrics,
	logger *zap.Logger,
	cfg OrchestratorConfig,
) *SyncOrchestrator {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.applyDefaults()
	return &SyncOrchestrator{
		registry:        registry,
		integrationRepo: integrationRepo,
		productRepo:     productRepo,
		logRepo:         logRepo,
		reconciler:      reconciler,
		metrics:         metrics,
		logger:          logger,
		cfg:             cfg,
	}
}

// Run executes one manual sync run for an integration.
//
// Returns integration.ErrSyncAlreadyInProgress when another run holds the
// guard; the caller gets a conflict, not a queued run. Individual entity
// failures are absorbed into the result summaries; only fetch failures
// and cancellation abort the run. Whatever happens, the integration
// never stays in_progress after Run returns.
func (o *SyncOrchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	it, err := o.integrationRepo.FindByID(ctx, req.OrganizationID, req.IntegrationID)
	if err != nil {
		return nil, err
	}
	if !it.Active {
		return nil, integration.ErrIntegrationInactive
	}

	platform, err := o.registry.Get(it.Platform)
	if err != nil {
		return nil, err
	}

	if err := o.acquireGuard(ctx, it); err != nil {
		return nil, err
	}

	result := &RunResult{
		IntegrationID: it.ID,
		Scope:         req.Scope,
		Direction:     req.Direction,
		StartedAt:     time.Now(),
	}

	o.logger.Info("sync run started",
		zap.String("integration_id", it.ID.String()),
		zap.String("platform", it.Platform.String()),
		zap.String("scope", string(req.Scope)),
		zap.String("direction", string(req.Direction)))

	o.execute(ctx, platform, it, req, result)

	result.FinishedAt = time.Now()
	o.releaseGuard(ctx, it, result)

	runStatus := "completed"
	if result.Aborted {
		runStatus = "aborted"
	}
	o.metrics.RecordSyncRun(ctx, it.Platform, runStatus, result.FinishedAt.Sub(result.StartedAt))
	o.logger.Info("sync run finished",
		zap.String("integration_id", it.ID.String()),
		zap.String("status", runStatus),
		zap.Int("products_created", result.Products.Created),
		zap.Int("products_updated", result.Products.Updated),
		zap.Int("products_failed", result.Products.Failed),
		zap.Int("orders_created", result.Orders.Created),
		zap.Int("orders_updated", result.Orders.Updated),
		zap.Int("orders_failed", result.Orders.Failed),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))

	return result, nil
}

// acquireGuard moves the integration into in_progress, losing gracefully
// to a concurrent run.
func (o *SyncOrchestrator) acquireGuard(ctx context.Context, it *integration.Integration) error {
	for _, from := range []integration.SyncStatus{integration.SyncStatusIdle, integration.SyncStatusError} {
		ok, err := o.integrationRepo.UpdateSyncStatusIf(ctx, it.ID, from, integration.SyncStatusInProgress)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return integration.ErrSyncAlreadyInProgress
}

// releaseGuard records the run's terminal state. It must run even when
// ctx was cancelled mid-run; a permanently in_progress integration can
// never sync again.
func (o *SyncOrchestrator) releaseGuard(ctx context.Context, it *integration.Integration, result *RunResult) {
	releaseCtx := context.WithoutCancel(ctx)
	status := integration.SyncStatusIdle
	if result.Aborted {
		status = integration.SyncStatusError
	}
	if err := o.integrationRepo.RecordSyncOutcome(releaseCtx, it.ID, status, result.FinishedAt, result.Error); err != nil {
		o.logger.Error("failed to release sync guard",
			zap.String("integration_id", it.ID.String()),
			zap.Error(err))
	}
}

func (o *SyncOrchestrator) execute(ctx context.Context, platform integration.CommercePlatform, it *integration.Integration, req RunRequest, result *RunResult) {
	if req.Direction.Pulls() {
		if req.Scope.IncludesProducts() {
			if err := o.pullProducts(ctx, platform, it, &result.Products); err != nil {
				result.Aborted = true
				result.Error = err.Error()
				return
			}
		}
		if req.Scope.IncludesOrders() {
			if err := o.pullOrders(ctx, platform, it, &result.Orders); err != nil {
				result.Aborted = true
				result.Error = err.Error()
				return
			}
		}
	}

	if req.Direction.Pushes() && req.Scope.IncludesProducts() {
		if err := o.pushProducts(ctx, platform, it, &result.Products); err != nil {
			result.Aborted = true
			result.Error = err.Error()
		}
	}
}

// pullProducts walks the platform's product pages through the reconciler.
// A page fetch failure aborts; a single product failure is counted and
// the walk continues.
func (o *SyncOrchestrator) pullProducts(ctx context.Context, platform integration.CommercePlatform, it *integration.Integration, summary *EntitySummary) error {
	req := integration.PullRequest{Page: 1, PageSize: o.cfg.PageSize}
	for pages := 0; ; pages++ {
		if o.cfg.MaxPages > 0 && pages >= o.cfg.MaxPages {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := platform.FetchProducts(ctx, it.Credentials, req)
		if err != nil {
			return fmt.Errorf("fetch products page %d: %w", req.Page, err)
		}

		for i := range page.Products {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := o.reconciler.ReconcileProduct(ctx, it, &page.Products[i], integration.ActionPullSync)
			summary.Add(outcome, err)
		}

		if !page.HasMore {
			return nil
		}
		req.Page++
		req.Cursor = page.NextCursor
	}
}

// pullOrders mirrors pullProducts for orders.
func (o *SyncOrchestrator) pullOrders(ctx context.Context, platform integration.CommercePlatform, it *integration.Integration, summary *EntitySummary) error {
	req := integration.PullRequest{Page: 1, PageSize: o.cfg.PageSize}
	for pages := 0; ; pages++ {
		if o.cfg.MaxPages > 0 && pages >= o.cfg.MaxPages {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := platform.FetchOrders(ctx, it.Credentials, req)
		if err != nil {
			return fmt.Errorf("fetch orders page %d: %w", req.Page, err)
		}

		for i := range page.Orders {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcome, err := o.reconciler.ReconcileOrder(ctx, it, &page.Orders[i], integration.ActionPullSync)
			summary.Add(outcome, err)
		}

		if !page.HasMore {
			return nil
		}
		req.Page++
		req.Cursor = page.NextCursor
	}
}

// pushProducts exports products the platform has not seen yet.
func (o *SyncOrchestrator) pushProducts(ctx context.Context, platform integration.CommercePlatform, it *integration.Integration, summary *EntitySummary) error {
	products, err := o.productRepo.ListUnsyncedForPlatform(ctx, it.OrganizationID, it.Platform, o.cfg.PushBatchSize)
	if err != nil {
		return fmt.Errorf("list unsynced products: %w", err)
	}

	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}

		push := integration.ProductPush{
			Name:        p.Name,
			Description: p.Description,
			SKU:         p.SKU,
			Price:       p.Price,
			Stock:       p.Stock,
			Images:      p.Images,
			Active:      p.Active,
		}
		if state, ok := p.PlatformSync[it.Platform]; ok {
			push.ExternalID = state.ProductID
		}
		// No platform id yet means the push will create the remote product.
		wasNew := push.ExternalID == ""

		platformID, err := platform.PushProduct(ctx, it.Credentials, push)
		if err != nil {
			summary.Add("", err)
			o.appendPushLog(ctx, it, p.ID.String(), "", err)
			o.metrics.RecordEntitySync(ctx, it.Platform, integration.SyncEntityProduct, string(integration.SyncLogStatusFailed))
			continue
		}

		p.MarkSynced(it.Platform, platformID, time.Now())
		if err := o.productRepo.Update(ctx, p); err != nil {
			summary.Add("", err)
			o.appendPushLog(ctx, it, p.ID.String(), platformID, err)
			continue
		}

		outcome := OutcomeUpdated
		if wasNew {
			outcome = OutcomeCreated
		}
		summary.Add(outcome, nil)
		o.appendPushLog(ctx, it, p.ID.String(), platformID, nil)
		o.metrics.RecordEntitySync(ctx, it.Platform, integration.SyncEntityProduct, string(integration.SyncLogStatusSuccess))
	}
	return nil
}

// appendPushLog records one push attempt keyed by the internal product
// id; the platform's id, when known, travels in the metadata.
func (o *SyncOrchestrator) appendPushLog(ctx context.Context, it *integration.Integration, entityID, platformID string, cause error) {
	log := integration.NewSyncLog(it.ID, it.OrganizationID, integration.SyncEntityProduct, entityID, integration.ActionPush, integration.SyncLogStatusSuccess)
	if cause != nil {
		log.WithError(cause)
	}
	md := map[string]any{"platform": it.Platform.String()}
	if platformID != "" {
		md["platform_product_id"] = platformID
	}
	log.WithMetadata(md)
	if err := o.logRepo.Append(ctx, log); err != nil {
		o.logger.Error("failed to append sync log", zap.Error(err))
	}
}
