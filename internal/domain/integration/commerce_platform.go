package integration

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// CommercePlatform Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured    = errors.New("integration: platform not configured")
	ErrPlatformNotRegistered    = errors.New("integration: platform not registered")
	ErrPlatformUnavailable      = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed    = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse  = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed       = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited      = errors.New("integration: platform rate limited")
	ErrPlatformInvalidSignature = errors.New("integration: invalid webhook signature")

	// Webhook errors
	ErrWebhookInvalidPayload = errors.New("integration: invalid webhook payload")
	ErrWebhookUnknownTopic   = errors.New("integration: unknown webhook topic")

	// Integration errors
	ErrIntegrationNotFound   = errors.New("integration: integration not found")
	ErrIntegrationInactive   = errors.New("integration: integration is not active")
	ErrSyncAlreadyInProgress = errors.New("integration: sync already in progress")

	// Entity errors
	ErrProductNotFound = errors.New("integration: product not found")
	ErrOrderNotFound   = errors.New("integration: order not found")
)

// ---------------------------------------------------------------------------
// PlatformCode represents the type of commerce platform
// ---------------------------------------------------------------------------

// PlatformCode represents the type of commerce platform
type PlatformCode string

const (
	// PlatformCodeShopify represents a Shopify store
	PlatformCodeShopify PlatformCode = "SHOPIFY"
	// PlatformCodeWooCommerce represents a WooCommerce store
	PlatformCodeWooCommerce PlatformCode = "WOOCOMMERCE"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeShopify, PlatformCodeWooCommerce:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// WebhookTopic identifies the event that triggered a webhook delivery
// ---------------------------------------------------------------------------

// WebhookTopic is the platform-neutral event name of a webhook delivery.
// Adapters translate their platform's native topic strings into these.
type WebhookTopic string

const (
	TopicProductCreate WebhookTopic = "product.create"
	TopicProductUpdate WebhookTopic = "product.update"
	TopicProductDelete WebhookTopic = "product.delete"
	TopicOrderCreate   WebhookTopic = "order.create"
	TopicOrderUpdate   WebhookTopic = "order.update"
	TopicOrderCancel   WebhookTopic = "order.cancel"
	TopicOrderFulfill  WebhookTopic = "order.fulfill"
	TopicOrderRefund   WebhookTopic = "order.refund"
)

// IsValid returns true if the topic is one the engine knows how to handle
func (t WebhookTopic) IsValid() bool {
	switch t {
	case TopicProductCreate, TopicProductUpdate, TopicProductDelete,
		TopicOrderCreate, TopicOrderUpdate, TopicOrderCancel,
		TopicOrderFulfill, TopicOrderRefund:
		return true
	default:
		return false
	}
}

// String returns the string representation of WebhookTopic
func (t WebhookTopic) String() string {
	return string(t)
}

// IsProductTopic returns true for product lifecycle topics
func (t WebhookTopic) IsProductTopic() bool {
	switch t {
	case TopicProductCreate, TopicProductUpdate, TopicProductDelete:
		return true
	default:
		return false
	}
}

// IsOrderTopic returns true for order lifecycle topics
func (t WebhookTopic) IsOrderTopic() bool {
	switch t {
	case TopicOrderCreate, TopicOrderUpdate, TopicOrderCancel,
		TopicOrderFulfill, TopicOrderRefund:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Credentials carries per-integration connection secrets
// ---------------------------------------------------------------------------

// Credentials carries the per-tenant connection material an adapter needs
// to call a platform API. The keys are platform-specific; adapters document
// the ones they read.
type Credentials struct {
	// ShopDomain is the store's host, e.g. "acme.myshopify.com" or
	// "shop.example.com" for WooCommerce.
	ShopDomain string

	// AccessToken is the API token (Shopify admin token, or unused).
	AccessToken string

	// APIKey and APISecret are consumer key/secret pairs (WooCommerce).
	APIKey    string
	APISecret string
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

const (
	// DefaultPageSize is used when a pull request does not specify one
	DefaultPageSize = 50
	// MaxPageSize caps a single page to protect platform rate limits
	MaxPageSize = 250
)

// PullRequest describes one page of a paginated fetch from a platform.
type PullRequest struct {
	// Page is 1-based. Adapters that paginate by cursor use Cursor instead
	// and ignore Page.
	Page     int
	PageSize int
	Cursor   string

	// UpdatedAfter limits results to entities modified after this time.
	// Zero means no lower bound.
	UpdatedAfter time.Time
}

// Validate normalizes the request, clamping the page size into range.
func (r *PullRequest) Validate() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
}

// ProductPage is one page of normalized products pulled from a platform.
type ProductPage struct {
	Products   []NormalizedProduct
	NextCursor string
	HasMore    bool
}

// OrderPage is one page of normalized orders pulled from a platform.
type OrderPage struct {
	Orders     []NormalizedOrder
	NextCursor string
	HasMore    bool
}

// ---------------------------------------------------------------------------
// PushProduct input
// ---------------------------------------------------------------------------

// ProductPush is the platform-neutral shape sent when exporting a product
// to a platform. Adapters translate it into their native create/update call.
type ProductPush struct {
	// ExternalID is the platform's product id when the product has been
	// pushed before; empty means create.
	ExternalID  string
	Name        string
	Description string
	SKU         string
	Price       decimal.Decimal
	Stock       int
	Images      []string
	Active      bool
}

// ---------------------------------------------------------------------------
// CommercePlatform Port Interface
// ---------------------------------------------------------------------------

// CommercePlatform is the port interface for commerce platform adapters.
// One adapter instance serves all tenants; per-tenant credentials are
// passed on every call.
type CommercePlatform interface {
	// Code returns the platform this adapter serves
	Code() PlatformCode

	// VerifyWebhookSignature checks the platform's HMAC signature over the
	// exact raw request body. An empty secret disables verification and
	// returns true; callers are expected to log that case distinctly.
	VerifyWebhookSignature(rawBody []byte, signature, secret string) bool

	// ParseWebhookTopic translates the platform's native topic string into
	// a platform-neutral topic. Returns ErrWebhookUnknownTopic for topics
	// the engine does not handle.
	ParseWebhookTopic(nativeTopic string) (WebhookTopic, error)

	// NormalizeProduct converts a raw product webhook payload into the
	// platform-neutral product shape.
	NormalizeProduct(rawPayload []byte) (*NormalizedProduct, error)

	// NormalizeOrder converts a raw order webhook payload into the
	// platform-neutral order shape. The topic is applied on top of the
	// payload: a cancel topic yields a cancelled order regardless of the
	// payload's own status fields.
	NormalizeOrder(rawPayload []byte, topic WebhookTopic) (*NormalizedOrder, error)

	// FetchProducts pulls one page of products from the platform
	FetchProducts(ctx context.Context, creds Credentials, req PullRequest) (*ProductPage, error)

	// FetchOrders pulls one page of orders from the platform
	FetchOrders(ctx context.Context, creds Credentials, req PullRequest) (*OrderPage, error)

	// PushProduct creates or updates a product on the platform and returns
	// the platform's product id.
	PushProduct(ctx context.Context, creds Credentials, push ProductPush) (string, error)
}

// ---------------------------------------------------------------------------
// PlatformRegistry
// ---------------------------------------------------------------------------

// PlatformRegistry resolves adapters by platform code. Adding a platform
// means registering a new adapter, not editing dispatch sites.
type PlatformRegistry interface {
	// Register adds a platform adapter to the registry
	Register(platform CommercePlatform)

	// Get returns the adapter for a platform code.
	// Returns ErrPlatformNotRegistered if no adapter is registered.
	Get(code PlatformCode) (CommercePlatform, error)

	// Codes returns the registered platform codes
	Codes() []PlatformCode
}
