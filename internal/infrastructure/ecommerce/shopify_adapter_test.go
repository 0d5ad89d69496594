package ecommerce

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestShopifyConfig_Validate(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		config := &ShopifyConfig{}
		require.NoError(t, config.Validate())
		assert.Equal(t, "2024-10", config.APIVersion)
		assert.Equal(t, 30*time.Second, config.Timeout)
		assert.Equal(t, 3, config.MaxRetries)
	})

	t.Run("negative retries rejected", func(t *testing.T) {
		config := &ShopifyConfig{MaxRetries: -1}
		assert.Error(t, config.Validate())
	})

	t.Run("explicit values preserved", func(t *testing.T) {
		config := &ShopifyConfig{APIVersion: "2023-07", Timeout: 5 * time.Second, MaxRetries: 1}
		require.NoError(t, config.Validate())
		assert.Equal(t, "2023-07", config.APIVersion)
		assert.Equal(t, 5*time.Second, config.Timeout)
	})
}

// ---------------------------------------------------------------------------
// Signature Verification Tests
// ---------------------------------------------------------------------------

func shopifySign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestShopifyAdapter_VerifyWebhookSignature(t *testing.T) {
	adapter := newTestShopifyAdapter(t, "")
	body := []byte(`{"id":123,"title":"Widget"}`)
	secret := "shhh"
	valid := shopifySign(body, secret)

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{"valid signature", body, valid, secret, true},
		{"wrong secret", body, shopifySign(body, "other"), secret, false},
		{"tampered body", []byte(`{"id":124,"title":"Widget"}`), valid, secret, false},
		{"single byte mutation", body, "A" + valid[1:], secret, false},
		{"empty signature", body, "", secret, false},
		{"garbage signature", body, "not-base64!!", secret, false},
		{"no secret configured passes", body, "anything", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := adapter.VerifyWebhookSignature(tt.body, tt.signature, tt.secret)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Topic Parsing Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_ParseWebhookTopic(t *testing.T) {
	adapter := newTestShopifyAdapter(t, "")

	tests := []struct {
		native string
		want   integration.WebhookTopic
	}{
		{"products/create", integration.TopicProductCreate},
		{"products/update", integration.TopicProductUpdate},
		{"products/delete", integration.TopicProductDelete},
		{"orders/create", integration.TopicOrderCreate},
		{"orders/updated", integration.TopicOrderUpdate},
		{"orders/paid", integration.TopicOrderUpdate},
		{"orders/cancelled", integration.TopicOrderCancel},
		{"orders/fulfilled", integration.TopicOrderFulfill},
		{"refunds/create", integration.TopicOrderRefund},
	}

	for _, tt := range tests {
		t.Run(tt.native, func(t *testing.T) {
			topic, err := adapter.ParseWebhookTopic(tt.native)
			require.NoError(t, err)
			assert.Equal(t, tt.want, topic)
		})
	}

	t.Run("unknown topic", func(t *testing.T) {
		_, err := adapter.ParseWebhookTopic("customers/create")
		assert.ErrorIs(t, err, integration.ErrWebhookUnknownTopic)
	})
}

// ---------------------------------------------------------------------------
// Normalization Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_NormalizeProduct(t *testing.T) {
	adapter := newTestShopifyAdapter(t, "")

	t.Run("full payload", func(t *testing.T) {
		raw := []byte(`{
			"id": 123,
			"title": "Widget",
			"body_html": "<p>A widget</p>",
			"handle": "widget",
			"vendor": "Acme",
			"product_type": "Gadgets",
			"status": "active",
			"variants": [
				{"id": 9, "title": "Default", "sku": "WIDGET-1", "price": "19.99", "inventory_quantity": 5}
			],
			"images": [{"src": "https://cdn.example.com/widget.png"}],
			"updated_at": "2024-06-01T12:00:00Z"
		}`)

		p, err := adapter.NormalizeProduct(raw)
		require.NoError(t, err)
		assert.Equal(t, "123", p.ExternalID)
		assert.Equal(t, "Widget", p.Name)
		assert.Equal(t, "WIDGET-1", p.SKU)
		assert.Equal(t, "19.99", p.Price.String())
		assert.Equal(t, 5, p.Stock)
		assert.True(t, p.Active)
		require.Len(t, p.Variants, 1)
		assert.Equal(t, "9", p.Variants[0].ExternalID)
		assert.Equal(t, "19.99", p.Variants[0].Price.String())
		assert.Equal(t, []string{"https://cdn.example.com/widget.png"}, p.Images)
		assert.Equal(t, "Acme", p.Metadata["vendor"])
		assert.Equal(t, "Gadgets", p.Metadata["product_type"])
	})

	t.Run("multi variant stock is summed, price from first", func(t *testing.T) {
		raw := []byte(`{
			"id": 200,
			"title": "Shirt",
			"variants": [
				{"id": 1, "sku": "S-M", "price": "25.00", "inventory_quantity": 3},
				{"id": 2, "sku": "S-L", "price": "27.00", "inventory_quantity": 7}
			]
		}`)

		p, err := adapter.NormalizeProduct(raw)
		require.NoError(t, err)
		assert.Equal(t, "25", p.Price.String())
		assert.Equal(t, 10, p.Stock)
		assert.Len(t, p.Variants, 2)
	})

	t.Run("sku falls back to handle then id", func(t *testing.T) {
		p, err := adapter.NormalizeProduct([]byte(`{"id": 300, "title": "X", "handle": "x-thing"}`))
		require.NoError(t, err)
		assert.Equal(t, "x-thing", p.SKU)

		p, err = adapter.NormalizeProduct([]byte(`{"id": 301, "title": "Y"}`))
		require.NoError(t, err)
		assert.Equal(t, "301", p.SKU)
	})

	t.Run("unmodeled fields preserved in metadata", func(t *testing.T) {
		raw := []byte(`{"id":123,"title":"Widget","template_suffix":"special","custom_field":"must-not-be-lost"}`)
		p, err := adapter.NormalizeProduct(raw)
		require.NoError(t, err)
		require.NotNil(t, p.Metadata)
		assert.Equal(t, "special", p.Metadata["template_suffix"])
		assert.Equal(t, "must-not-be-lost", p.Metadata["custom_field"])
		assert.NotContains(t, p.Metadata, "id")
		assert.NotContains(t, p.Metadata, "title")
	})

	t.Run("fully modeled payload has no metadata", func(t *testing.T) {
		p, err := adapter.NormalizeProduct([]byte(`{"id":124,"title":"Plain","status":"active"}`))
		require.NoError(t, err)
		assert.Nil(t, p.Metadata)
	})

	t.Run("archived product inactive", func(t *testing.T) {
		p, err := adapter.NormalizeProduct([]byte(`{"id": 400, "title": "Old", "status": "archived"}`))
		require.NoError(t, err)
		assert.False(t, p.Active)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := adapter.NormalizeProduct([]byte(`{not json`))
		assert.ErrorIs(t, err, integration.ErrWebhookInvalidPayload)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := adapter.NormalizeProduct([]byte(`{"title":"no id"}`))
		assert.ErrorIs(t, err, integration.ErrWebhookInvalidPayload)
	})
}

func TestShopifyAdapter_NormalizeOrder(t *testing.T) {
	adapter := newTestShopifyAdapter(t, "")

	raw := []byte(`{
		"id": 5001,
		"name": "#1001",
		"email": "jo@example.com",
		"currency": "USD",
		"total_price": "49.98",
		"financial_status": "paid",
		"customer": {"email": "jo@example.com", "first_name": "Jo", "last_name": "Smith"},
		"line_items": [
			{"variant_id": 9, "title": "Widget", "sku": "WIDGET-1", "quantity": 2, "price": "19.99"},
			{"title": "Custom item", "quantity": 1, "price": "10.00"}
		],
		"shipping_address": {"name": "Jo Smith", "address1": "1 Main St", "city": "Springfield", "country": "US", "zip": "12345"},
		"created_at": "2024-06-01T10:00:00Z",
		"updated_at": "2024-06-01T11:00:00Z"
	}`)

	t.Run("plain update", func(t *testing.T) {
		o, err := adapter.NormalizeOrder(raw, integration.TopicOrderUpdate)
		require.NoError(t, err)
		assert.Equal(t, "5001", o.ExternalID)
		assert.Equal(t, "#1001", o.OrderNumber)
		assert.Equal(t, integration.PaymentStatusPaid, o.PaymentStatus)
		assert.Equal(t, "49.98", o.TotalAmount.String())
		assert.Equal(t, "Jo Smith", o.CustomerName)
		require.Len(t, o.Items, 2)
		assert.Equal(t, "9", o.Items[0].ExternalVariantID)
		assert.Equal(t, 2, o.Items[0].Quantity)
		assert.Empty(t, o.Items[1].ExternalVariantID)
		require.NotNil(t, o.ShippingAddress)
		assert.Equal(t, "1 Main St", o.ShippingAddress.Line1)
	})

	t.Run("cancel topic forces status", func(t *testing.T) {
		o, err := adapter.NormalizeOrder(raw, integration.TopicOrderCancel)
		require.NoError(t, err)
		assert.Equal(t, integration.OrderStatusCancelled, o.Status)
	})

	t.Run("cancelled_at wins over fulfillment", func(t *testing.T) {
		cancelled := []byte(`{"id": 5002, "fulfillment_status": "fulfilled", "cancelled_at": "2024-06-02T00:00:00Z"}`)
		o, err := adapter.NormalizeOrder(cancelled, integration.TopicOrderUpdate)
		require.NoError(t, err)
		assert.Equal(t, integration.OrderStatusCancelled, o.Status)
	})

	t.Run("refund topic forces payment status", func(t *testing.T) {
		o, err := adapter.NormalizeOrder(raw, integration.TopicOrderRefund)
		require.NoError(t, err)
		assert.Equal(t, integration.PaymentStatusRefunded, o.PaymentStatus)
	})

	t.Run("unmodeled fields preserved in metadata", func(t *testing.T) {
		extra := []byte(`{"id":5003,"financial_status":"paid","note":"gift wrap","tags":"vip"}`)
		o, err := adapter.NormalizeOrder(extra, integration.TopicOrderUpdate)
		require.NoError(t, err)
		require.NotNil(t, o.Metadata)
		assert.Equal(t, "gift wrap", o.Metadata["note"])
		assert.Equal(t, "vip", o.Metadata["tags"])
		assert.NotContains(t, o.Metadata, "financial_status")
	})
}

// ---------------------------------------------------------------------------
// Fetch Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_FetchProducts(t *testing.T) {
	creds := integration.Credentials{ShopDomain: "acme.myshopify.com", AccessToken: "token"}

	t.Run("page with cursor advance", func(t *testing.T) {
		var gotPath, gotLimit, gotSince, gotToken string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotLimit = r.URL.Query().Get("limit")
			gotSince = r.URL.Query().Get("since_id")
			gotToken = r.Header.Get("X-Shopify-Access-Token")
			json.NewEncoder(w).Encode(map[string]any{"products": []shopifyProduct{
				{ID: 101, Title: "A", Variants: []shopifyVariant{{ID: 1, Price: "5.00", InventoryQuantity: 2}}},
				{ID: 102, Title: "B", Variants: []shopifyVariant{{ID: 2, Price: "6.00", InventoryQuantity: 1}}},
			}})
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		page, err := adapter.FetchProducts(context.Background(), creds, integration.PullRequest{Page: 1, PageSize: 2, Cursor: "100"})
		require.NoError(t, err)

		assert.Equal(t, "/admin/api/2024-10/products.json", gotPath)
		assert.Equal(t, "2", gotLimit)
		assert.Equal(t, "100", gotSince)
		assert.Equal(t, "token", gotToken)

		require.Len(t, page.Products, 2)
		assert.Equal(t, "101", page.Products[0].ExternalID)
		assert.True(t, page.HasMore)
		assert.Equal(t, "102", page.NextCursor)
	})

	t.Run("short page ends pagination", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"products": []shopifyProduct{{ID: 103, Title: "C"}}})
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		page, err := adapter.FetchProducts(context.Background(), creds, integration.PullRequest{PageSize: 50})
		require.NoError(t, err)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("auth failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		_, err := adapter.FetchProducts(context.Background(), creds, integration.PullRequest{})
		assert.ErrorIs(t, err, integration.ErrPlatformAuthFailed)
	})

	t.Run("rate limited", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		_, err := adapter.FetchProducts(context.Background(), creds, integration.PullRequest{})
		assert.ErrorIs(t, err, integration.ErrPlatformRateLimited)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		_, err := adapter.FetchProducts(context.Background(), creds, integration.PullRequest{})
		assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)
	})

	t.Run("missing credentials", func(t *testing.T) {
		adapter := newTestShopifyAdapter(t, "")
		_, err := adapter.FetchProducts(context.Background(), integration.Credentials{}, integration.PullRequest{})
		assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
	})
}

func TestShopifyAdapter_FetchOrders(t *testing.T) {
	creds := integration.Credentials{ShopDomain: "acme.myshopify.com", AccessToken: "token"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "any", r.URL.Query().Get("status"))
		json.NewEncoder(w).Encode(map[string]any{"orders": []shopifyOrder{
			{ID: 5001, Name: "#1001", TotalPrice: "49.98", FinancialStatus: "paid", Currency: "USD"},
		}})
	}))
	defer server.Close()

	adapter := newTestShopifyAdapterWithServer(t, server.URL)
	page, err := adapter.FetchOrders(context.Background(), creds, integration.PullRequest{PageSize: 50})
	require.NoError(t, err)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "5001", page.Orders[0].ExternalID)
	assert.Equal(t, integration.PaymentStatusPaid, page.Orders[0].PaymentStatus)
	assert.False(t, page.HasMore)
}

// ---------------------------------------------------------------------------
// Push Tests
// ---------------------------------------------------------------------------

func TestShopifyAdapter_PushProduct(t *testing.T) {
	creds := integration.Credentials{ShopDomain: "acme.myshopify.com", AccessToken: "token"}

	push := integration.ProductPush{
		Name:        "Widget",
		Description: "A widget",
		SKU:         "WIDGET-1",
		Price:       decimal.RequireFromString("19.99"),
		Stock:       5,
		Active:      true,
	}

	t.Run("create posts new product", func(t *testing.T) {
		var gotMethod, gotPath string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			json.NewDecoder(r.Body).Decode(&gotBody)
			json.NewEncoder(w).Encode(shopifyProductEnvelope{Product: shopifyProduct{ID: 777}})
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		id, err := adapter.PushProduct(context.Background(), creds, push)
		require.NoError(t, err)
		assert.Equal(t, "777", id)
		assert.Equal(t, http.MethodPost, gotMethod)
		assert.Equal(t, "/admin/api/2024-10/products.json", gotPath)

		product := gotBody["product"].(map[string]any)
		assert.Equal(t, "Widget", product["title"])
		assert.Equal(t, "active", product["status"])
		variants := product["variants"].([]any)
		require.Len(t, variants, 1)
		assert.Equal(t, "19.99", variants[0].(map[string]any)["price"])
	})

	t.Run("update puts existing product", func(t *testing.T) {
		var gotMethod, gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			json.NewEncoder(w).Encode(shopifyProductEnvelope{Product: shopifyProduct{ID: 777}})
		}))
		defer server.Close()

		existing := push
		existing.ExternalID = "777"

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		id, err := adapter.PushProduct(context.Background(), creds, existing)
		require.NoError(t, err)
		assert.Equal(t, "777", id)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/admin/api/2024-10/products/777.json", gotPath)
	})

	t.Run("request rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"errors":{"title":["can't be blank"]}}`))
		}))
		defer server.Close()

		adapter := newTestShopifyAdapterWithServer(t, server.URL)
		_, err := adapter.PushProduct(context.Background(), creds, push)
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
	})
}

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

func newTestShopifyAdapter(t *testing.T, baseURL string) *ShopifyAdapter {
	adapter, err := NewShopifyAdapter(ShopifyConfig{BaseURL: baseURL}, nil)
	require.NoError(t, err)
	return adapter
}

func newTestShopifyAdapterWithServer(t *testing.T, serverURL string) *ShopifyAdapter {
	return newTestShopifyAdapter(t, serverURL)
}
