package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	SignatureHeader = "X-Razorpay-Signature"
	EventIDHeader   = "X-Razorpay-Event-Id"

	EventPaymentLinkPaid = "payment_link.paid"
)

// VerifySignature checks the hex HMAC-SHA256 of the raw body.
func VerifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Sign is the counterpart of VerifySignature.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		PaymentLink *struct {
			Entity struct {
				ID     string         `json:"id"`
				Status string         `json:"status"`
				Notes  map[string]any `json:"notes"`
			} `json:"entity"`
		} `json:"payment_link"`
		Payment *struct {
			Entity struct {
				ID     string `json:"id"`
				Amount int64  `json:"amount"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaidLink is what a payment_link.paid event tells us.
type PaidLink struct {
	PaymentLinkID string
	PaymentID     string
	SellerID      string
	OrderID       string
}

func ParseWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return WebhookEvent{}, fmt.Errorf("decode webhook: %w", err)
	}
	return ev, nil
}

// Paid returns the paid link details, or false for any other event.
func (e WebhookEvent) Paid() (PaidLink, bool) {
	if e.Event != EventPaymentLinkPaid || e.Payload.PaymentLink == nil {
		return PaidLink{}, false
	}
	link := e.Payload.PaymentLink.Entity
	out := PaidLink{
		PaymentLinkID: link.ID,
		SellerID:      noteString(link.Notes["seller_id"]),
		OrderID:       noteString(link.Notes["order_id"]),
	}
	if e.Payload.Payment != nil {
		out.PaymentID = e.Payload.Payment.Entity.ID
	}
	return out, out.PaymentLinkID != ""
}

func noteString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}
