package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced           = "OrderPlaced"
	EventOrderStatusChanged    = "OrderStatusChanged"
	EventPaymentLinkCreated    = "PaymentLinkCreated"
	EventPaymentCompleted      = "PaymentCompleted"
	EventCancellationRequested = "CancellationRequested"
	EventCancellationApproved  = "CancellationApproved"
	EventCancellationRejected  = "CancellationRejected"
	EventNotificationQueued    = "NotificationQueued"
	EventWhatsAppMessage       = "WhatsAppMessageReceived"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g., "seller-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // seller_id:order_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderPlacedPayload struct {
	Order Order `json:"order"`
}

type StatusChangedPayload struct {
	OrderID           int           `json:"order_id"`
	OrderStatus       OrderStatus   `json:"order_status"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PrevOrderStatus   OrderStatus   `json:"prev_order_status"`
	PrevPaymentStatus PaymentStatus `json:"prev_payment_status"`
	Notified          []string      `json:"notified,omitempty"`
}

type PaymentLinkCreatedPayload struct {
	OrderID       int    `json:"order_id"`
	PaymentLinkID string `json:"payment_link_id"`
	ShortURL      string `json:"short_url"`
}

type PaymentCompletedPayload struct {
	OrderID           int    `json:"order_id"`
	PaymentLinkID     string `json:"payment_link_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
}

type CancellationPayload struct {
	OrderID int    `json:"order_id"`
	Outcome string `json:"outcome"` // requested | approved | rejected
}

// WhatsAppMessagePayload is an inbound buyer message handed to the agent runtime.
type WhatsAppMessagePayload struct {
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	Name      string    `json:"name,omitempty"`
	Text      string    `json:"text"`
	SellerID  string    `json:"seller_id"`
	SentAt    time.Time `json:"sent_at"`
}
