package ecommerce

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Shopify wire types
// ---------------------------------------------------------------------------

type shopifyVariant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	BodyHTML    string           `json:"body_html"`
	Handle      string           `json:"handle"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Tags        string           `json:"tags"`
	Status      string           `json:"status"`
	Variants    []shopifyVariant `json:"variants"`
	Images      []shopifyImage   `json:"images"`
	UpdatedAt   string           `json:"updated_at"`
}

type shopifyAddress struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

type shopifyCustomer struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type shopifyLineItem struct {
	VariantID int64  `json:"variant_id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

type shopifyOrder struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Currency          string            `json:"currency"`
	TotalPrice        string            `json:"total_price"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	CancelledAt       string            `json:"cancelled_at"`
	Customer          *shopifyCustomer  `json:"customer"`
	LineItems         []shopifyLineItem `json:"line_items"`
	ShippingAddress   *shopifyAddress   `json:"shipping_address"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

type shopifyProductEnvelope struct {
	Product shopifyProduct `json:"product"`
}

// List envelopes keep items raw so each one can be normalized with its
// unmodeled fields intact.
type shopifyProductsEnvelope struct {
	Products []json.RawMessage `json:"products"`
}

type shopifyOrdersEnvelope struct {
	Orders []json.RawMessage `json:"orders"`
}

// Wire keys that normalization folds into NormalizedProduct/Order
// fields. Everything else in the payload survives in Metadata.
var shopifyProductConsumed = []string{
	"id", "title", "body_html", "status", "variants", "images", "updated_at",
}

var shopifyOrderConsumed = []string{
	"id", "name", "email", "currency", "total_price", "financial_status",
	"fulfillment_status", "cancelled_at", "customer", "line_items",
	"shipping_address", "created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Converters
// ---------------------------------------------------------------------------

func convertShopifyProduct(p *shopifyProduct, raw []byte) *integration.NormalizedProduct {
	n := &integration.NormalizedProduct{
		ExternalID:  strconv.FormatInt(p.ID, 10),
		Name:        p.Title,
		Description: p.BodyHTML,
		Active:      p.Status == "" || p.Status == "active",
		UpdatedAt:   parseShopifyTime(p.UpdatedAt),
	}

	// SKU: explicit variant SKU, then handle, then the platform id.
	if len(p.Variants) > 0 && p.Variants[0].SKU != "" {
		n.SKU = p.Variants[0].SKU
	} else if p.Handle != "" {
		n.SKU = p.Handle
	} else {
		n.SKU = n.ExternalID
	}

	for i, v := range p.Variants {
		nv := integration.NormalizedVariant{
			ExternalID: strconv.FormatInt(v.ID, 10),
			SKU:        v.SKU,
			Title:      v.Title,
			Price:      parseDecimal(v.Price),
			Stock:      v.InventoryQuantity,
		}
		n.Variants = append(n.Variants, nv)
		if i == 0 {
			n.Price = nv.Price
		}
		n.Stock += v.InventoryQuantity
	}

	for _, img := range p.Images {
		if img.Src != "" {
			n.Images = append(n.Images, img.Src)
		}
	}

	// Source fields with no internal home, vendor and tags included.
	n.Metadata = extraFields(raw, shopifyProductConsumed)

	return n
}

func convertShopifyOrder(o *shopifyOrder, topic integration.WebhookTopic, raw []byte) *integration.NormalizedOrder {
	n := &integration.NormalizedOrder{
		ExternalID:    strconv.FormatInt(o.ID, 10),
		OrderNumber:   o.Name,
		Currency:      o.Currency,
		TotalAmount:   parseDecimal(o.TotalPrice),
		CustomerEmail: o.Email,
		PlacedAt:      parseShopifyTime(o.CreatedAt),
		UpdatedAt:     parseShopifyTime(o.UpdatedAt),
	}

	// Order status from fulfillment state, cancellation timestamp wins
	// over it, then the webhook topic wins over everything.
	switch {
	case o.CancelledAt != "":
		n.Status = integration.OrderStatusCancelled
	case o.FulfillmentStatus != "":
		n.Status = integration.MapOrderStatus(o.FulfillmentStatus)
	default:
		n.Status = integration.MapOrderStatus(o.FinancialStatus)
	}
	n.PaymentStatus = integration.MapPaymentStatus(o.FinancialStatus)

	if forced, ok := integration.OrderStatusForTopic(topic); ok {
		n.Status = forced
	}
	if forced, ok := integration.PaymentStatusForTopic(topic); ok {
		n.PaymentStatus = forced
	}

	if o.Customer != nil {
		if n.CustomerEmail == "" {
			n.CustomerEmail = o.Customer.Email
		}
		n.CustomerName = joinName(o.Customer.FirstName, o.Customer.LastName)
	}

	for _, li := range o.LineItems {
		item := integration.NormalizedOrderItem{
			Title:     li.Title,
			SKU:       li.SKU,
			Quantity:  li.Quantity,
			UnitPrice: parseDecimal(li.Price),
		}
		if li.VariantID != 0 {
			item.ExternalVariantID = strconv.FormatInt(li.VariantID, 10)
		}
		n.Items = append(n.Items, item)
	}

	if o.ShippingAddress != nil {
		n.ShippingAddress = &integration.ShippingAddress{
			Name:     o.ShippingAddress.Name,
			Line1:    o.ShippingAddress.Address1,
			Line2:    o.ShippingAddress.Address2,
			City:     o.ShippingAddress.City,
			Province: o.ShippingAddress.Province,
			Country:  o.ShippingAddress.Country,
			Zip:      o.ShippingAddress.Zip,
			Phone:    o.ShippingAddress.Phone,
		}
	}

	n.Metadata = extraFields(raw, shopifyOrderConsumed)

	return n
}

// extraFields returns the payload's members minus the consumed keys, so
// platform-specific fields are preserved verbatim through normalization.
// Returns nil when nothing is left over or the payload is not an object.
func extraFields(raw []byte, consumed []string) map[string]any {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil
	}
	for _, k := range consumed {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

// parseDecimal parses a money string. Platforms occasionally send empty
// price fields; those become zero rather than an error.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseShopifyTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
