package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/domain/shared"
)

// WebhookService processes inbound platform webhooks end to end:
// tenant resolution, signature verification, deduplication, payload
// normalization and reconciliation.
//
// Order of checks matters. The signature is verified before anything is
// read from or written to the store, so a forged delivery can never
// mutate state or leave an audit row.
type WebhookService struct {
	registry        integration.PlatformRegistry
	integrationRepo integration.IntegrationRepository
	logRepo         integration.SyncLogRepository
	reconciler      *EntityReconciler
	idempotency     shared.IdempotencyStore
	idempotencyCfg  shared.IdempotencyConfig
	archive         PayloadArchive
	metrics         Metrics
	logger          *zap.Logger
}

// WebhookServiceOption configures a WebhookService.
type WebhookServiceOption func(*WebhookService)

// WithIdempotencyStore enables webhook deduplication.
func WithIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) WebhookServiceOption {
	return func(s *WebhookService) {
		s.idempotency = store
		s.idempotencyCfg = cfg
	}
}

// WithPayloadArchive enables raw payload archiving.
func WithPayloadArchive(archive PayloadArchive) WebhookServiceOption {
	return func(s *WebhookService) {
		s.archive = archive
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) WebhookServiceOption {
	return func(s *WebhookService) {
		s.metrics = m
	}
}

// NewWebhookService creates a webhook processing service.
func NewWebhookService(
	registry integration.PlatformRegistry,
	integrationRepo integration.IntegrationRepository,
	logRepo integration.SyncLogRepository,
	reconciler *EntityReconciler,
	logger *zap.Logger,
	opts ...WebhookServiceOption,
) *WebhookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &WebhookService{
		registry:        registry,
		integrationRepo: integrationRepo,
		logRepo:         logRepo,
		reconciler:      reconciler,
		idempotencyCfg:  shared.DefaultIdempotencyConfig(),
		metrics:         NopMetrics{},
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process handles one webhook delivery.
//
// Error semantics, which the HTTP layer maps onto status codes:
//   - ErrPlatformInvalidSignature: reject, the platform should not retry
//     with the same body and no state was touched
//   - ErrIntegrationNotFound / ErrIntegrationInactive: the delivery is
//     semantically unprocessable here; acknowledge so the platform stops
//     retrying
//   - anything else: a processing failure already recorded in the sync log
func (s *WebhookService) Process(ctx context.Context, d WebhookDelivery) (*WebhookResult, error) {
	platform, err := s.registry.Get(d.Platform)
	if err != nil {
		return nil, err
	}

	topic, err := platform.ParseWebhookTopic(d.Topic)
	if err != nil {
		// Topics the engine does not handle are acknowledged and dropped,
		// the same way unknown payload statuses map to pending. Stores
		// subscribe to broad topic sets.
		s.logger.Debug("ignoring webhook topic",
			zap.String("platform", d.Platform.String()),
			zap.String("topic", d.Topic))
		s.metrics.RecordWebhook(ctx, d.Platform, "", "ignored")
		return &WebhookResult{Outcome: OutcomeNoop}, nil
	}

	it, err := s.integrationRepo.FindByShopDomain(ctx, d.Platform, d.ShopDomain)
	if err != nil {
		s.logger.Warn("webhook for unknown shop",
			zap.String("platform", d.Platform.String()),
			zap.String("shop_domain", d.ShopDomain))
		return nil, err
	}
	if !it.Active {
		return nil, integration.ErrIntegrationInactive
	}

	secret := it.WebhookSecret()
	if secret == "" {
		// Pass-through is deliberate for integrations still being set up,
		// but it must be visible in the logs.
		s.logger.Warn("webhook signature verification disabled: no secret configured",
			zap.String("platform", d.Platform.String()),
			zap.String("integration_id", it.ID.String()))
	} else if !platform.VerifyWebhookSignature(d.RawBody, d.Signature, secret) {
		s.logger.Warn("webhook signature mismatch",
			zap.String("platform", d.Platform.String()),
			zap.String("shop_domain", d.ShopDomain),
			zap.String("topic", topic.String()))
		s.metrics.RecordWebhook(ctx, d.Platform, topic, "signature_rejected")
		return nil, integration.ErrPlatformInvalidSignature
	}

	if dup, err := s.markProcessed(ctx, d); err != nil {
		// Dedup store trouble must not drop deliveries; reconciliation is
		// idempotent, so processing a possible duplicate is the safe side.
		s.logger.Warn("idempotency check failed, processing anyway", zap.Error(err))
	} else if dup {
		s.logger.Info("duplicate webhook delivery skipped",
			zap.String("platform", d.Platform.String()),
			zap.String("event_id", d.EventID))
		s.appendSkippedLog(ctx, it, topic, d)
		s.metrics.RecordWebhook(ctx, d.Platform, topic, "duplicate")
		return &WebhookResult{Topic: topic, Outcome: OutcomeNoop, Duplicate: true}, nil
	}

	s.archivePayload(ctx, it, topic, d)

	outcome, err := s.dispatch(ctx, platform, it, topic, d.RawBody)
	if err != nil {
		s.metrics.RecordWebhook(ctx, d.Platform, topic, "failed")
		return nil, err
	}

	s.metrics.RecordWebhook(ctx, d.Platform, topic, "processed")
	return &WebhookResult{Topic: topic, Outcome: outcome}, nil
}

// dispatch routes a verified delivery to the reconciler by topic.
func (s *WebhookService) dispatch(ctx context.Context, platform integration.CommercePlatform, it *integration.Integration, topic integration.WebhookTopic, raw []byte) (ReconcileOutcome, error) {
	switch {
	case topic == integration.TopicProductDelete:
		n, err := platform.NormalizeProduct(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
		}
		return s.reconciler.DeleteProduct(ctx, it, n.ExternalID)

	case topic.IsProductTopic():
		n, err := platform.NormalizeProduct(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
		}
		return s.reconciler.ReconcileProduct(ctx, it, n, integration.ActionForTopic(topic))

	case topic.IsOrderTopic():
		n, err := platform.NormalizeOrder(raw, topic)
		if err != nil {
			return "", fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
		}
		return s.reconciler.ReconcileOrder(ctx, it, n, integration.ActionForTopic(topic))

	default:
		return "", integration.ErrWebhookUnknownTopic
	}
}

// markProcessed records the delivery id in the dedup store. Returns true
// when the id was seen before.
func (s *WebhookService) markProcessed(ctx context.Context, d WebhookDelivery) (bool, error) {
	if s.idempotency == nil || !s.idempotencyCfg.Enabled || d.EventID == "" {
		return false, nil
	}
	key := fmt.Sprintf("%s:%s:%s", d.Platform, d.ShopDomain, d.EventID)
	fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idempotencyCfg.TTL)
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

func (s *WebhookService) appendSkippedLog(ctx context.Context, it *integration.Integration, topic integration.WebhookTopic, d WebhookDelivery) {
	entityType := integration.SyncEntityProduct
	if topic.IsOrderTopic() {
		entityType = integration.SyncEntityOrder
	}
	log := integration.NewSyncLog(it.ID, it.OrganizationID, entityType, d.EventID, integration.ActionWebhookUpdate, integration.SyncLogStatusSkipped)
	log.WithMetadata(map[string]any{
		"platform": it.Platform.String(),
		"topic":    topic.String(),
		"reason":   "duplicate_delivery",
	})
	if err := s.logRepo.Append(ctx, log); err != nil {
		s.logger.Error("failed to append skipped sync log", zap.Error(err))
	}
}

// archivePayload stores the raw body for later diagnosis. Best effort.
func (s *WebhookService) archivePayload(ctx context.Context, it *integration.Integration, topic integration.WebhookTopic, d WebhookDelivery) {
	if s.archive == nil {
		return
	}
	eventID := d.EventID
	if eventID == "" {
		eventID = fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	if err := s.archive.ArchiveWebhook(ctx, it.OrganizationID.String(), it.Platform, topic.String(), eventID, d.RawBody); err != nil {
		s.logger.Warn("failed to archive webhook payload",
			zap.String("event_id", eventID),
			zap.Error(err))
	}
}
