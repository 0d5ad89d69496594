package ecommerce

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// WooCommerceAdapter implements the CommercePlatform port for
// WooCommerce stores via the wc/v3 REST API.
type WooCommerceAdapter struct {
	config     WooCommerceConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWooCommerceAdapter creates a WooCommerce adapter.
func NewWooCommerceAdapter(config WooCommerceConfig, logger *zap.Logger) (*WooCommerceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WooCommerceAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// Code returns the platform code
func (a *WooCommerceAdapter) Code() integration.PlatformCode {
	return integration.PlatformCodeWooCommerce
}

// VerifyWebhookSignature checks WooCommerce's X-WC-Webhook-Signature
// header: base64-encoded HMAC-SHA256 of the raw request body. Comparison
// is constant time. An empty secret disables verification.
func (a *WooCommerceAdapter) VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ParseWebhookTopic translates WooCommerce topic strings. Order
// cancellation and refunds arrive as order.updated with the
// corresponding status, so only deletion maps to the cancel topic.
func (a *WooCommerceAdapter) ParseWebhookTopic(nativeTopic string) (integration.WebhookTopic, error) {
	switch nativeTopic {
	case "product.created", "product.restored":
		return integration.TopicProductCreate, nil
	case "product.updated":
		return integration.TopicProductUpdate, nil
	case "product.deleted":
		return integration.TopicProductDelete, nil
	case "order.created":
		return integration.TopicOrderCreate, nil
	case "order.updated", "order.restored":
		return integration.TopicOrderUpdate, nil
	case "order.deleted":
		return integration.TopicOrderCancel, nil
	default:
		return "", fmt.Errorf("%w: %s", integration.ErrWebhookUnknownTopic, nativeTopic)
	}
}

// NormalizeProduct converts a raw WooCommerce product webhook payload.
func (a *WooCommerceAdapter) NormalizeProduct(rawPayload []byte) (*integration.NormalizedProduct, error) {
	var p wooProduct
	if err := json.Unmarshal(rawPayload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: product id missing", integration.ErrWebhookInvalidPayload)
	}
	return convertWooProduct(&p, rawPayload), nil
}

// NormalizeOrder converts a raw WooCommerce order webhook payload.
func (a *WooCommerceAdapter) NormalizeOrder(rawPayload []byte, topic integration.WebhookTopic) (*integration.NormalizedOrder, error) {
	var o wooOrder
	if err := json.Unmarshal(rawPayload, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
	}
	if o.ID == 0 {
		return nil, fmt.Errorf("%w: order id missing", integration.ErrWebhookInvalidPayload)
	}
	return convertWooOrder(&o, topic, rawPayload), nil
}

// FetchProducts pulls one page of products. WooCommerce paginates by
// page number; the cursor is unused.
func (a *WooCommerceAdapter) FetchProducts(ctx context.Context, creds integration.Credentials, req integration.PullRequest) (*integration.ProductPage, error) {
	req.Validate()

	body, err := a.doRequest(ctx, creds, http.MethodGet, "/products", a.pageQuery(req), nil)
	if err != nil {
		return nil, err
	}

	var products []json.RawMessage
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	page := &integration.ProductPage{}
	for _, raw := range products {
		var p wooProduct
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		page.Products = append(page.Products, *convertWooProduct(&p, raw))
	}
	page.HasMore = len(products) == req.PageSize
	return page, nil
}

// FetchOrders pulls one page of orders, any status.
func (a *WooCommerceAdapter) FetchOrders(ctx context.Context, creds integration.Credentials, req integration.PullRequest) (*integration.OrderPage, error) {
	req.Validate()

	query := a.pageQuery(req)
	query.Set("status", "any")

	body, err := a.doRequest(ctx, creds, http.MethodGet, "/orders", query, nil)
	if err != nil {
		return nil, err
	}

	var orders []json.RawMessage
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	page := &integration.OrderPage{}
	for _, raw := range orders {
		var o wooOrder
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		page.Orders = append(page.Orders, *convertWooOrder(&o, "", raw))
	}
	page.HasMore = len(orders) == req.PageSize
	return page, nil
}

// PushProduct creates or updates a product on WooCommerce and returns
// its id.
func (a *WooCommerceAdapter) PushProduct(ctx context.Context, creds integration.Credentials, push integration.ProductPush) (string, error) {
	status := "draft"
	if push.Active {
		status = "publish"
	}
	payload := map[string]any{
		"name":           push.Name,
		"description":    push.Description,
		"sku":            push.SKU,
		"regular_price":  push.Price.StringFixed(2),
		"manage_stock":   true,
		"stock_quantity": push.Stock,
		"status":         status,
	}

	method := http.MethodPost
	path := "/products"
	if push.ExternalID != "" {
		method = http.MethodPut
		path = "/products/" + push.ExternalID
	}

	body, err := a.doRequest(ctx, creds, method, path, nil, payload)
	if err != nil {
		return "", err
	}

	var created wooProduct
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if created.ID == 0 {
		return "", fmt.Errorf("%w: no product id in response", integration.ErrPlatformInvalidResponse)
	}
	return strconv.FormatInt(created.ID, 10), nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

func (a *WooCommerceAdapter) pageQuery(req integration.PullRequest) url.Values {
	page := req.Page
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(req.PageSize))
	if !req.UpdatedAfter.IsZero() {
		query.Set("modified_after", req.UpdatedAfter.UTC().Format("2006-01-02T15:04:05"))
	}
	return query
}

func (a *WooCommerceAdapter) baseURL(creds integration.Credentials) string {
	if a.config.BaseURL != "" {
		return a.config.BaseURL
	}
	return "https://" + creds.ShopDomain
}

func (a *WooCommerceAdapter) doRequest(ctx context.Context, creds integration.Credentials, method, path string, query url.Values, payload any) ([]byte, error) {
	if creds.ShopDomain == "" || creds.APIKey == "" || creds.APISecret == "" {
		return nil, integration.ErrPlatformNotConfigured
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("consumer_key", creds.APIKey)
	query.Set("consumer_secret", creds.APISecret)

	endpoint := a.baseURL(creds) + "/wp-json/wc/v3" + path + "?" + query.Encode()

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		a.logger.Warn("woocommerce request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, err
	}
	return body, nil
}

// Ensure WooCommerceAdapter implements CommercePlatform
var _ integration.CommercePlatform = (*WooCommerceAdapter)(nil)
