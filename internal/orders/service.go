package orders

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentLinkRequest struct {
	SellerID      string
	OrderID       int
	Amount        decimal.Decimal
	CustomerName  string
	CustomerPhone string
	Description   string
}

type PaymentLink struct {
	ID  string
	URL string
}

// PaymentLinker creates hosted payment links. Failures wrap ErrGateway.
type PaymentLinker interface {
	CreatePaymentLink(ctx context.Context, creds RazorpayCredentials, req PaymentLinkRequest) (PaymentLink, error)
}

type NotificationKind string

const (
	NotifyOrderStatus   NotificationKind = "order_status"
	NotifyPayment       NotificationKind = "payment"
	NotifyCustomMessage NotificationKind = "custom"
)

type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type Notification struct {
	Kind       NotificationKind `json:"kind"`
	SellerID   string           `json:"seller_id"`
	OrderID    int              `json:"order_id"`
	To         string           `json:"to"`
	Text       string           `json:"text"`
	Attachment *Attachment      `json:"attachment,omitempty"`
}

// Notifier delivers a buyer notification (WhatsApp directly, or a queue).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// EventSink receives order lifecycle events after they are persisted.
// Emit must not block the caller for long.
type EventSink interface {
	Emit(ctx context.Context, ev Event)
}

type Event struct {
	Type       string    `json:"type"`
	SellerID   string    `json:"seller_id"`
	OrderID    int       `json:"order_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Sinks fans one event out to several sinks.
type Sinks []EventSink

func (ss Sinks) Emit(ctx context.Context, ev Event) {
	for _, s := range ss {
		if s != nil {
			s.Emit(ctx, ev)
		}
	}
}

// Service is the cart and order engine. Store is required; the collaborators
// are optional and a nil one disables its feature.
type Service struct {
	Store    Store
	Payments PaymentLinker
	Notifier Notifier
	Events   EventSink
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) emit(ctx context.Context, typ, sellerID string, orderID int, payload any) {
	if s.Events == nil {
		return
	}
	s.Events.Emit(ctx, Event{
		Type:       typ,
		SellerID:   sellerID,
		OrderID:    orderID,
		OccurredAt: s.now(),
		Payload:    payload,
	})
}

// notify is best-effort: a failed delivery never fails the operation that
// triggered it.
func (s *Service) notify(ctx context.Context, n Notification) bool {
	if s.Notifier == nil || n.To == "" {
		return false
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		log.Printf("[orders] notify %s order=%d seller=%s: %v", n.Kind, n.OrderID, n.SellerID, err)
		return false
	}
	return true
}
