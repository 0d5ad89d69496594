package integration

import "strings"

// ---------------------------------------------------------------------------
// OrderStatus represents the internal order lifecycle status
// ---------------------------------------------------------------------------

// OrderStatus represents the internal order lifecycle status
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsFinal returns true if the status is a terminal state
func (s OrderStatus) IsFinal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// PaymentStatus represents the internal payment status
// ---------------------------------------------------------------------------

// PaymentStatus represents the internal payment status
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid returns true if the status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Status mapping
// ---------------------------------------------------------------------------

// MapOrderStatus translates an external order status string into the
// internal vocabulary. The mapping is total: any value it does not
// recognize, including the empty string, becomes pending. Unknown
// statuses must never fail a sync; a later update corrects the record.
func MapOrderStatus(external string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "pending", "open", "unfulfilled", "on-hold", "awaiting_payment":
		return OrderStatusPending
	case "processing", "paid", "confirmed", "partially_fulfilled", "in_progress":
		return OrderStatusProcessing
	case "shipped", "fulfilled", "in_transit", "out_for_delivery":
		return OrderStatusShipped
	case "delivered", "completed", "complete":
		return OrderStatusDelivered
	case "cancelled", "canceled", "voided", "trash", "failed_order":
		return OrderStatusCancelled
	case "refunded", "partially_refunded":
		return OrderStatusRefunded
	default:
		return OrderStatusPending
	}
}

// MapPaymentStatus translates an external payment/financial status string
// into the internal vocabulary. Total like MapOrderStatus: unknown values
// become pending.
func MapPaymentStatus(external string) PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "pending", "authorized", "unpaid", "awaiting_payment", "on-hold":
		return PaymentStatusPending
	case "paid", "captured", "completed", "complete", "processing", "partially_paid":
		return PaymentStatusPaid
	case "failed", "declined", "voided", "expired":
		return PaymentStatusFailed
	case "refunded", "partially_refunded":
		return PaymentStatusRefunded
	default:
		return PaymentStatusPending
	}
}

// OrderStatusForTopic returns the order status a webhook topic forces,
// regardless of what the payload claims. Returns false when the topic
// carries no status signal and the payload mapping should stand.
// A platform can deliver a cancellation webhook whose body still reads
// "processing"; the topic wins.
func OrderStatusForTopic(topic WebhookTopic) (OrderStatus, bool) {
	switch topic {
	case TopicOrderCancel:
		return OrderStatusCancelled, true
	case TopicOrderFulfill:
		return OrderStatusShipped, true
	case TopicOrderRefund:
		return OrderStatusRefunded, true
	default:
		return "", false
	}
}

// PaymentStatusForTopic returns the payment status a webhook topic forces.
func PaymentStatusForTopic(topic WebhookTopic) (PaymentStatus, bool) {
	if topic == TopicOrderRefund {
		return PaymentStatusRefunded, true
	}
	return "", false
}
