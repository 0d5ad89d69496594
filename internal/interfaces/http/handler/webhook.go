package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/interfaces/http/dto"
)

// defaultMaxWebhookBody caps webhook payloads when no limit is configured.
const defaultMaxWebhookBody = 1 << 20

// WebhookProcessor processes one inbound webhook delivery.
type WebhookProcessor interface {
	Process(ctx context.Context, d appsync.WebhookDelivery) (*appsync.WebhookResult, error)
}

// webhookHeaderSchema names the headers a platform's webhook dispatcher
// sends. ShopDomain, Topic and Signature are required; EventID feeds
// deduplication and may be absent on platforms that do not send one.
type webhookHeaderSchema struct {
	ShopDomain string
	Topic      string
	Signature  string
	EventID    string
}

// webhookHeaders maps each supported platform to its header schema.
var webhookHeaders = map[integration.PlatformCode]webhookHeaderSchema{
	integration.PlatformCodeShopify: {
		ShopDomain: "X-Shopify-Shop-Domain",
		Topic:      "X-Shopify-Topic",
		Signature:  "X-Shopify-Hmac-Sha256",
		EventID:    "X-Shopify-Webhook-Id",
	},
	integration.PlatformCodeWooCommerce: {
		ShopDomain: "X-WC-Webhook-Source",
		Topic:      "X-WC-Webhook-Topic",
		Signature:  "X-WC-Webhook-Signature",
		EventID:    "X-WC-Webhook-ID",
	},
}

// WebhookHandler receives platform webhook deliveries. These endpoints are
// called by the platforms themselves and sit outside the organization
// middleware; the shop domain header identifies the tenant.
type WebhookHandler struct {
	BaseHandler
	processor   WebhookProcessor
	maxBodySize int64
	logger      *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(processor WebhookProcessor, maxBodySize int64, logger *zap.Logger) *WebhookHandler {
	if maxBodySize <= 0 {
		maxBodySize = defaultMaxWebhookBody
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		processor:   processor,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/:platform", h.Receive)
}

// Receive handles POST /webhooks/:platform.
//
// Status codes follow webhook dispatcher expectations: 400 for requests
// missing required headers, 401 for signature failures, 200 for
// everything the engine accepted responsibility for. Deliveries for
// unknown shops or inactive integrations are acknowledged so the
// platform stops retrying something that can never succeed here.
func (h *WebhookHandler) Receive(c *gin.Context) {
	platform, ok := parsePlatformParam(c.Param("platform"))
	if !ok {
		h.NotFound(c, "Unknown platform")
		return
	}
	schema := webhookHeaders[platform]

	shopDomain := c.GetHeader(schema.ShopDomain)
	topic := c.GetHeader(schema.Topic)
	signature := c.GetHeader(schema.Signature)
	switch {
	case shopDomain == "":
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMissingHeader, "Missing "+schema.ShopDomain+" header")
		return
	case topic == "":
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMissingHeader, "Missing "+schema.Topic+" header")
		return
	case signature == "":
		h.Error(c, http.StatusBadRequest, dto.ErrCodeMissingHeader, "Missing "+schema.Signature+" header")
		return
	}

	// The raw body is needed verbatim for signature verification.
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxBodySize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if int64(len(body)) > h.maxBodySize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest, "Payload too large")
		return
	}

	eventID := c.GetHeader(schema.EventID)
	result, err := h.processor.Process(c.Request.Context(), appsync.WebhookDelivery{
		Platform:   platform,
		ShopDomain: shopDomain,
		Topic:      topic,
		EventID:    eventID,
		Signature:  signature,
		RawBody:    body,
	})
	if err != nil {
		h.respondProcessError(c, eventID, err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAckResponse{
		Received:  true,
		EventID:   eventID,
		Topic:     result.Topic.String(),
		Duplicate: result.Duplicate,
	})
}

// respondProcessError maps processing errors onto dispatcher-facing
// status codes.
func (h *WebhookHandler) respondProcessError(c *gin.Context, eventID string, err error) {
	switch {
	case errors.Is(err, integration.ErrPlatformInvalidSignature):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")

	case errors.Is(err, integration.ErrIntegrationNotFound),
		errors.Is(err, integration.ErrIntegrationInactive):
		c.JSON(http.StatusOK, dto.WebhookAckResponse{
			Received: true,
			EventID:  eventID,
			Message:  "No active integration for this shop",
		})

	default:
		// The failure is already in the sync log; retrying the same body
		// will not change the outcome, so acknowledge.
		h.logger.Warn("webhook processing failed",
			zap.String("event_id", eventID),
			zap.Error(err))
		c.JSON(http.StatusOK, dto.WebhookAckResponse{
			Received: true,
			EventID:  eventID,
			Message:  "Webhook received but processing encountered an issue",
		})
	}
}

// parsePlatformParam resolves the :platform path segment.
func parsePlatformParam(param string) (integration.PlatformCode, bool) {
	code := integration.PlatformCode(strings.ToUpper(param))
	if !code.IsValid() {
		return "", false
	}
	return code, true
}
