package orders

import (
	"context"
	"strings"
)

type RazorpayStatus struct {
	Connected bool   `json:"connected"`
	Enabled   bool   `json:"enabled"`
	APIKey    string `json:"api_key,omitempty"` // masked
}

func (s *Service) SaveRazorpayCredentials(ctx context.Context, sellerID string, creds RazorpayCredentials) error {
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.APISecret = strings.TrimSpace(creds.APISecret)
	if creds.APIKey == "" || creds.APISecret == "" {
		return invalid("api_key and api_secret are required")
	}
	creds.Enabled = true
	return s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		sel.Razorpay = &creds
		return nil
	})
}

func (s *Service) RazorpayStatus(ctx context.Context, sellerID string) (RazorpayStatus, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return RazorpayStatus{}, err
	}
	if sel.Razorpay == nil || sel.Razorpay.APIKey == "" {
		return RazorpayStatus{}, nil
	}
	return RazorpayStatus{
		Connected: true,
		Enabled:   sel.Razorpay.Enabled,
		APIKey:    maskKey(sel.Razorpay.APIKey),
	}, nil
}

// DisconnectRazorpay disables payment links but keeps the stored keys.
func (s *Service) DisconnectRazorpay(ctx context.Context, sellerID string) error {
	return s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		if sel.Razorpay == nil {
			return ErrNotFound
		}
		sel.Razorpay.Enabled = false
		return nil
	})
}

// WebhookSecret returns the seller's own webhook secret, if any.
func (s *Service) WebhookSecret(ctx context.Context, sellerID string) (string, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return "", err
	}
	if sel.Razorpay == nil {
		return "", nil
	}
	return sel.Razorpay.WebhookSecret, nil
}

func maskKey(k string) string {
	if len(k) <= 8 {
		return strings.Repeat("*", len(k))
	}
	return k[:8] + strings.Repeat("*", len(k)-8)
}

// CompletePayment marks the order owning paymentLinkID as paid and sends
// the confirmation. An empty sellerID searches every seller. Replayed
// webhooks leave the order as is and notify nobody.
func (s *Service) CompletePayment(ctx context.Context, sellerID, paymentLinkID, paymentID string) (UpdateResult, error) {
	if paymentLinkID == "" {
		return UpdateResult{}, invalid("payment link id is required")
	}
	match := func(o Order) bool { return o.PaymentLinkID == paymentLinkID }
	if sellerID == "" {
		found, err := s.sellerForPaymentLink(ctx, paymentLinkID)
		if err != nil {
			return UpdateResult{}, err
		}
		sellerID = found
	}

	completed := PaymentCompleted
	now := NewTimestamp(s.now())
	res, err := s.updateOrder(ctx, sellerID, match, OrderUpdate{PaymentStatus: &completed}, func(o *Order) {
		if o.RazorpayPaymentID == "" {
			o.RazorpayPaymentID = paymentID
			o.PaymentCompletedAt = &now
		}
	})
	if err != nil {
		return UpdateResult{}, err
	}
	if res.PaymentStatusChanged {
		s.emit(ctx, EventPaymentCompleted, sellerID, res.Order.OrderID, PaymentCompletedPayload{
			OrderID:           res.Order.OrderID,
			PaymentLinkID:     paymentLinkID,
			RazorpayPaymentID: paymentID,
		})
	}
	return res, nil
}

// PaymentLinkIndex is implemented by stores that can find the seller owning
// a payment link without loading every seller.
type PaymentLinkIndex interface {
	SellerByPaymentLink(ctx context.Context, paymentLinkID string) (string, error)
}

func (s *Service) sellerForPaymentLink(ctx context.Context, paymentLinkID string) (string, error) {
	if idx, ok := s.Store.(PaymentLinkIndex); ok {
		return idx.SellerByPaymentLink(ctx, paymentLinkID)
	}
	return s.findSeller(ctx, func(sel *Seller) bool {
		for _, o := range sel.Orders {
			if o.PaymentLinkID == paymentLinkID {
				return true
			}
		}
		return false
	})
}
