package httpx

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/payments"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
	"github.com/ariefcatur/go-seller-assistant/internal/whatsapp"
)

const (
	dedupRazorpay = "razorpay"
	dedupWhatsApp = "whatsapp"
)

// InboundPublisher hands buyer messages to the agent runtime.
type InboundPublisher interface {
	Inbound(ctx context.Context, msg orders.WhatsAppMessagePayload)
}

// WebhookHandler serves the unauthenticated callbacks from Razorpay and the
// WhatsApp Cloud API.
type WebhookHandler struct {
	Service *orders.Service
	Redis   *redis.Client // nil disables dedup

	// RazorpaySecret is used when the seller has no webhook secret of
	// their own. With neither set, signatures are not checked.
	RazorpaySecret string

	VerifyToken   string
	SellerID      string // seller that owns the WhatsApp number
	Conversations *redisx.ConversationLog
	Inbound       InboundPublisher
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Post("/api/razorpay/webhook", h.razorpay)
		r.Get("/webhook", h.verifyWhatsApp)
		r.Post("/webhook", h.whatsApp)
	})
}

func (h *WebhookHandler) razorpay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}
	signature := r.Header.Get(payments.SignatureHeader)
	if signature == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing signature"})
		return
	}
	ev, err := payments.ParseWebhook(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	paid, ok := ev.Paid()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "event": ev.Event})
		return
	}

	secret := h.RazorpaySecret
	if paid.SellerID != "" {
		own, err := h.Service.WebhookSecret(r.Context(), paid.SellerID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if own != "" {
			secret = own
		}
	}
	if secret != "" && !payments.VerifySignature(body, signature, secret) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
		return
	}

	eventID := r.Header.Get(payments.EventIDHeader)
	if eventID == "" {
		eventID = paid.PaymentLinkID + ":" + paid.PaymentID
	}
	if h.Redis != nil {
		first, err := redisx.FirstSeen(r.Context(), h.Redis, dedupRazorpay, eventID)
		if err != nil {
			// dedup is an optimization; CompletePayment is idempotent anyway
			log.Printf("[httpx] razorpay dedup: %v", err)
		} else if !first {
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
	}

	ctx, cancel := detach(r.Context(), notifyTimeout)
	defer cancel()
	res, err := h.Service.CompletePayment(ctx, paid.SellerID, paid.PaymentLinkID, paid.PaymentID)
	if errors.Is(err, orders.ErrNotFound) {
		log.Printf("[httpx] razorpay webhook: no order for link %s", paid.PaymentLinkID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": "order not found"})
		return
	}
	if err != nil {
		if h.Redis != nil {
			_ = redisx.Forget(ctx, h.Redis, dedupRazorpay, eventID)
		}
		writeError(w, r, err)
		return
	}
	log.Printf("[httpx] order #%d payment completed (link %s)", res.Order.OrderID, paid.PaymentLinkID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "order_id": res.Order.OrderID})
}

func (h *WebhookHandler) verifyWhatsApp(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && h.VerifyToken != "" && q.Get("hub.verify_token") == h.VerifyToken {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

func (h *WebhookHandler) whatsApp(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "unreadable body"})
		return
	}
	msgs, err := whatsapp.ParseWebhook(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid json"})
		return
	}

	ctx := r.Context()
	accepted := 0
	for _, m := range msgs {
		if h.Redis != nil {
			first, err := redisx.FirstSeen(ctx, h.Redis, dedupWhatsApp, m.ID)
			if err != nil {
				log.Printf("[httpx] whatsapp dedup %s: %v", m.ID, err)
			} else if !first {
				continue
			}
		}
		if h.Conversations != nil {
			if err := h.Conversations.Append(ctx, h.SellerID, m.From, redisx.Message{Role: "user", Text: m.Text, At: m.SentAt}); err != nil {
				log.Printf("[httpx] conversation append %s: %v", m.From, err)
			}
		}
		if h.Inbound != nil {
			h.Inbound.Inbound(ctx, orders.WhatsAppMessagePayload{
				MessageID: m.ID,
				From:      m.From,
				Name:      m.Name,
				Text:      m.Text,
				SellerID:  h.SellerID,
				SentAt:    m.SentAt,
			})
		}
		accepted++
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "accepted": accepted})
}
