// Package ecommerce provides commerce platform adapters implementing the
// integration.CommercePlatform port.
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

// maxResponseSize limits platform API responses to 10MB
const maxResponseSize = 10 * 1024 * 1024

// ShopifyAdapter implements the CommercePlatform port for Shopify
// stores via the Admin REST API.
type ShopifyAdapter struct {
	config     ShopifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewShopifyAdapter creates a Shopify adapter.
func NewShopifyAdapter(config ShopifyConfig, logger *zap.Logger) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShopifyAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

// Code returns the platform code
func (a *ShopifyAdapter) Code() integration.PlatformCode {
	return integration.PlatformCodeShopify
}

// VerifyWebhookSignature checks Shopify's X-Shopify-Hmac-Sha256 header:
// base64-encoded HMAC-SHA256 of the raw request body. Comparison is
// constant time. An empty secret disables verification.
func (a *ShopifyAdapter) VerifyWebhookSignature(rawBody []byte, signature, secret string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ParseWebhookTopic translates Shopify topic strings.
func (a *ShopifyAdapter) ParseWebhookTopic(nativeTopic string) (integration.WebhookTopic, error) {
	switch nativeTopic {
	case "products/create":
		return integration.TopicProductCreate, nil
	case "products/update":
		return integration.TopicProductUpdate, nil
	case "products/delete":
		return integration.TopicProductDelete, nil
	case "orders/create":
		return integration.TopicOrderCreate, nil
	case "orders/updated", "orders/paid":
		return integration.TopicOrderUpdate, nil
	case "orders/cancelled":
		return integration.TopicOrderCancel, nil
	case "orders/fulfilled":
		return integration.TopicOrderFulfill, nil
	case "refunds/create":
		return integration.TopicOrderRefund, nil
	default:
		return "", fmt.Errorf("%w: %s", integration.ErrWebhookUnknownTopic, nativeTopic)
	}
}

// NormalizeProduct converts a raw Shopify product webhook payload.
// Webhook bodies carry the bare product object, not the REST envelope.
func (a *ShopifyAdapter) NormalizeProduct(rawPayload []byte) (*integration.NormalizedProduct, error) {
	var p shopifyProduct
	if err := json.Unmarshal(rawPayload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: product id missing", integration.ErrWebhookInvalidPayload)
	}
	return convertShopifyProduct(&p, rawPayload), nil
}

// NormalizeOrder converts a raw Shopify order webhook payload.
func (a *ShopifyAdapter) NormalizeOrder(rawPayload []byte, topic integration.WebhookTopic) (*integration.NormalizedOrder, error) {
	var o shopifyOrder
	if err := json.Unmarshal(rawPayload, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrWebhookInvalidPayload, err)
	}
	if o.ID == 0 {
		return nil, fmt.Errorf("%w: order id missing", integration.ErrWebhookInvalidPayload)
	}
	return convertShopifyOrder(&o, topic, rawPayload), nil
}

// FetchProducts pulls one page of products. Pagination is since_id
// based: the cursor is the last product id of the previous page.
func (a *ShopifyAdapter) FetchProducts(ctx context.Context, creds integration.Credentials, req integration.PullRequest) (*integration.ProductPage, error) {
	req.Validate()

	query := url.Values{}
	query.Set("limit", strconv.Itoa(req.PageSize))
	if req.Cursor != "" {
		query.Set("since_id", req.Cursor)
	}
	if !req.UpdatedAfter.IsZero() {
		query.Set("updated_at_min", req.UpdatedAfter.UTC().Format("2006-01-02T15:04:05Z"))
	}

	body, err := a.doRequest(ctx, creds, http.MethodGet, "/products.json", query, nil)
	if err != nil {
		return nil, err
	}

	var envelope shopifyProductsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	page := &integration.ProductPage{}
	var lastID int64
	for _, raw := range envelope.Products {
		var p shopifyProduct
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		page.Products = append(page.Products, *convertShopifyProduct(&p, raw))
		lastID = p.ID
	}
	if len(envelope.Products) == req.PageSize {
		page.HasMore = true
		page.NextCursor = strconv.FormatInt(lastID, 10)
	}
	return page, nil
}

// FetchOrders pulls one page of orders, any status.
func (a *ShopifyAdapter) FetchOrders(ctx context.Context, creds integration.Credentials, req integration.PullRequest) (*integration.OrderPage, error) {
	req.Validate()

	query := url.Values{}
	query.Set("limit", strconv.Itoa(req.PageSize))
	query.Set("status", "any")
	if req.Cursor != "" {
		query.Set("since_id", req.Cursor)
	}
	if !req.UpdatedAfter.IsZero() {
		query.Set("updated_at_min", req.UpdatedAfter.UTC().Format("2006-01-02T15:04:05Z"))
	}

	body, err := a.doRequest(ctx, creds, http.MethodGet, "/orders.json", query, nil)
	if err != nil {
		return nil, err
	}

	var envelope shopifyOrdersEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	page := &integration.OrderPage{}
	var lastID int64
	for _, raw := range envelope.Orders {
		var o shopifyOrder
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		page.Orders = append(page.Orders, *convertShopifyOrder(&o, "", raw))
		lastID = o.ID
	}
	if len(envelope.Orders) == req.PageSize {
		page.HasMore = true
		page.NextCursor = strconv.FormatInt(lastID, 10)
	}
	return page, nil
}

// PushProduct creates or updates a product on Shopify and returns its id.
func (a *ShopifyAdapter) PushProduct(ctx context.Context, creds integration.Credentials, push integration.ProductPush) (string, error) {
	status := "draft"
	if push.Active {
		status = "active"
	}
	payload := map[string]any{
		"product": map[string]any{
			"title":     push.Name,
			"body_html": push.Description,
			"status":    status,
			"variants": []map[string]any{{
				"sku":                push.SKU,
				"price":              push.Price.StringFixed(2),
				"inventory_quantity": push.Stock,
			}},
		},
	}

	method := http.MethodPost
	path := "/products.json"
	if push.ExternalID != "" {
		method = http.MethodPut
		path = "/products/" + push.ExternalID + ".json"
	}

	body, err := a.doRequest(ctx, creds, method, path, nil, payload)
	if err != nil {
		return "", err
	}

	var envelope shopifyProductEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if envelope.Product.ID == 0 {
		return "", fmt.Errorf("%w: no product id in response", integration.ErrPlatformInvalidResponse)
	}
	return strconv.FormatInt(envelope.Product.ID, 10), nil
}

// ---------------------------------------------------------------------------
// HTTP plumbing
// ---------------------------------------------------------------------------

func (a *ShopifyAdapter) baseURL(creds integration.Credentials) string {
	if a.config.BaseURL != "" {
		return a.config.BaseURL
	}
	return "https://" + creds.ShopDomain
}

func (a *ShopifyAdapter) doRequest(ctx context.Context, creds integration.Credentials, method, path string, query url.Values, payload any) ([]byte, error) {
	if creds.ShopDomain == "" || creds.AccessToken == "" {
		return nil, integration.ErrPlatformNotConfigured
	}

	endpoint := a.baseURL(creds) + "/admin/api/" + a.config.APIVersion + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

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
	req.Header.Set("X-Shopify-Access-Token", creds.AccessToken)
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
		a.logger.Warn("shopify request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, err
	}
	return body, nil
}

// classifyStatus maps HTTP status codes onto the domain's platform errors.
func classifyStatus(status int, body []byte) error {
	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", integration.ErrPlatformAuthFailed, status)
	case status == http.StatusTooManyRequests:
		return integration.ErrPlatformRateLimited
	case status >= 500:
		return fmt.Errorf("%w: status %d", integration.ErrPlatformUnavailable, status)
	default:
		return fmt.Errorf("%w: status %d: %s", integration.ErrPlatformRequestFailed, status, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Ensure ShopifyAdapter implements CommercePlatform
var _ integration.CommercePlatform = (*ShopifyAdapter)(nil)
