package ecommerce

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/agentcommerce/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// WooCommerce wire types
// ---------------------------------------------------------------------------

type wooImage struct {
	Src string `json:"src"`
}

type wooProduct struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	SKU           string     `json:"sku"`
	Price         string     `json:"price"`
	RegularPrice  string     `json:"regular_price"`
	StockQuantity *int       `json:"stock_quantity"`
	Status        string     `json:"status"`
	Images        []wooImage `json:"images"`
	Categories    []struct {
		Name string `json:"name"`
	} `json:"categories"`
	DateModified string `json:"date_modified_gmt"`
}

type wooContact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Postcode  string `json:"postcode"`
	Phone     string `json:"phone"`
}

type wooLineItem struct {
	Name        string      `json:"name"`
	SKU         string      `json:"sku"`
	ProductID   int64       `json:"product_id"`
	VariationID int64       `json:"variation_id"`
	Quantity    int         `json:"quantity"`
	Price       json.Number `json:"price"`
	Total       string      `json:"total"`
}

type wooOrder struct {
	ID           int64         `json:"id"`
	Number       string        `json:"number"`
	Status       string        `json:"status"`
	Currency     string        `json:"currency"`
	Total        string        `json:"total"`
	DatePaid     string        `json:"date_paid_gmt"`
	DateCreated  string        `json:"date_created_gmt"`
	DateModified string        `json:"date_modified_gmt"`
	Billing      *wooContact   `json:"billing"`
	Shipping     *wooContact   `json:"shipping"`
	LineItems    []wooLineItem `json:"line_items"`
}

// Wire keys that normalization folds into NormalizedProduct/Order
// fields. Everything else in the payload survives in Metadata.
var wooProductConsumed = []string{
	"id", "name", "description", "sku", "price", "regular_price",
	"stock_quantity", "status", "images", "categories", "date_modified_gmt",
}

var wooOrderConsumed = []string{
	"id", "number", "status", "currency", "total", "date_paid_gmt",
	"date_created_gmt", "date_modified_gmt", "billing", "shipping",
	"line_items",
}

// ---------------------------------------------------------------------------
// Converters
// ---------------------------------------------------------------------------

func convertWooProduct(p *wooProduct, raw []byte) *integration.NormalizedProduct {
	n := &integration.NormalizedProduct{
		ExternalID:  strconv.FormatInt(p.ID, 10),
		Name:        p.Name,
		Description: p.Description,
		Active:      p.Status == "" || p.Status == "publish",
		UpdatedAt:   parseWooTime(p.DateModified),
	}

	if p.SKU != "" {
		n.SKU = p.SKU
	} else {
		n.SKU = n.ExternalID
	}

	// WooCommerce "price" reflects active sale price, regular_price the
	// list price. Prefer the effective price.
	if p.Price != "" {
		n.Price = parseDecimal(p.Price)
	} else {
		n.Price = parseDecimal(p.RegularPrice)
	}

	if p.StockQuantity != nil {
		n.Stock = *p.StockQuantity
	}

	for _, img := range p.Images {
		if img.Src != "" {
			n.Images = append(n.Images, img.Src)
		}
	}

	// Unmodeled source fields ride along; categories flatten to names.
	n.Metadata = extraFields(raw, wooProductConsumed)
	if len(p.Categories) > 0 {
		names := make([]string, 0, len(p.Categories))
		for _, c := range p.Categories {
			names = append(names, c.Name)
		}
		if n.Metadata == nil {
			n.Metadata = make(map[string]any, 1)
		}
		n.Metadata["categories"] = names
	}

	return n
}

func convertWooOrder(o *wooOrder, topic integration.WebhookTopic, raw []byte) *integration.NormalizedOrder {
	n := &integration.NormalizedOrder{
		ExternalID:  strconv.FormatInt(o.ID, 10),
		OrderNumber: o.Number,
		Currency:    o.Currency,
		TotalAmount: parseDecimal(o.Total),
		Status:      integration.MapOrderStatus(o.Status),
		PlacedAt:    parseWooTime(o.DateCreated),
		UpdatedAt:   parseWooTime(o.DateModified),
	}

	switch {
	case o.Status == "refunded":
		n.PaymentStatus = integration.PaymentStatusRefunded
	case o.Status == "failed":
		n.PaymentStatus = integration.PaymentStatusFailed
	case o.DatePaid != "":
		n.PaymentStatus = integration.PaymentStatusPaid
	default:
		n.PaymentStatus = integration.PaymentStatusPending
	}

	if forced, ok := integration.OrderStatusForTopic(topic); ok {
		n.Status = forced
	}
	if forced, ok := integration.PaymentStatusForTopic(topic); ok {
		n.PaymentStatus = forced
	}

	if o.Billing != nil {
		n.CustomerEmail = o.Billing.Email
		n.CustomerName = joinName(o.Billing.FirstName, o.Billing.LastName)
	}

	for _, li := range o.LineItems {
		item := integration.NormalizedOrderItem{
			Title:     li.Name,
			SKU:       li.SKU,
			Quantity:  li.Quantity,
			UnitPrice: parseDecimal(li.Price.String()),
		}
		// Simple products carry no variation id; fall back to the
		// product id so variant resolution still has a key.
		switch {
		case li.VariationID != 0:
			item.ExternalVariantID = strconv.FormatInt(li.VariationID, 10)
		case li.ProductID != 0:
			item.ExternalVariantID = strconv.FormatInt(li.ProductID, 10)
		}
		n.Items = append(n.Items, item)
	}

	if o.Shipping != nil && (o.Shipping.Address1 != "" || o.Shipping.City != "") {
		n.ShippingAddress = &integration.ShippingAddress{
			Name:     joinName(o.Shipping.FirstName, o.Shipping.LastName),
			Line1:    o.Shipping.Address1,
			Line2:    o.Shipping.Address2,
			City:     o.Shipping.City,
			Province: o.Shipping.State,
			Country:  o.Shipping.Country,
			Zip:      o.Shipping.Postcode,
			Phone:    o.Shipping.Phone,
		}
	}

	n.Metadata = extraFields(raw, wooOrderConsumed)

	return n
}

// parseWooTime parses WooCommerce GMT timestamps, which omit the zone
// suffix.
func parseWooTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
