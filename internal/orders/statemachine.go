package orders

import (
	"context"
	"fmt"
	"log"
)

// OrderUpdate is a partial update from the seller dashboard. Nil fields are
// left untouched. CustomMessage replaces the generated buyer notification
// except for payment requests. Invoice is attached to payment requests only.
type OrderUpdate struct {
	OrderStatus   *OrderStatus   `json:"order_status"`
	PaymentStatus *PaymentStatus `json:"payment_status"`
	BuyerPhone    *string        `json:"buyer_phone"`
	DeliveryLat   *float64       `json:"delivery_lat"`
	DeliveryLng   *float64       `json:"delivery_lng"`
	CustomMessage string         `json:"custom_message"`
	Invoice       *Attachment    `json:"-"`
}

type UpdateResult struct {
	Order                Order          `json:"order"`
	OrderStatusChanged   bool           `json:"order_status_changed"`
	PaymentStatusChanged bool           `json:"payment_status_changed"`
	PaymentLink          *PaymentLink   `json:"payment_link,omitempty"`
	Notified             []Notification `json:"notified,omitempty"`
}

type transition struct {
	before, after Order
}

func (t transition) orderStatusChanged() bool {
	return t.before.OrderStatus != t.after.OrderStatus
}

func (t transition) paymentStatusChanged() bool {
	return t.before.PaymentStatus != t.after.PaymentStatus
}

// applyUpdate mutates o in place. Status values are not restricted: any
// status may replace any other.
func applyUpdate(o *Order, upd OrderUpdate) {
	if upd.OrderStatus != nil {
		o.OrderStatus = *upd.OrderStatus
	}
	if upd.PaymentStatus != nil {
		o.PaymentStatus = *upd.PaymentStatus
	}
	if upd.BuyerPhone != nil {
		o.BuyerPhone = *upd.BuyerPhone
	}
	if upd.DeliveryLat != nil {
		o.DeliveryLat = *upd.DeliveryLat
	}
	if upd.DeliveryLng != nil {
		o.DeliveryLng = *upd.DeliveryLng
	}
}

// UpdateOrderStatus persists the update, then notifies the buyer. The
// notification side is best-effort: gateway and delivery failures are
// logged and never undo the write.
func (s *Service) UpdateOrderStatus(ctx context.Context, sellerID string, orderID int, upd OrderUpdate) (UpdateResult, error) {
	if upd.DeliveryLat != nil {
		if err := validCoordinate("delivery_lat", *upd.DeliveryLat, 90); err != nil {
			return UpdateResult{}, err
		}
	}
	if upd.DeliveryLng != nil {
		if err := validCoordinate("delivery_lng", *upd.DeliveryLng, 180); err != nil {
			return UpdateResult{}, err
		}
	}
	match := func(o Order) bool { return o.OrderID == orderID }
	return s.updateOrder(ctx, sellerID, match, upd, nil)
}

func (s *Service) updateOrder(ctx context.Context, sellerID string, match func(Order) bool, upd OrderUpdate, extra func(*Order)) (UpdateResult, error) {
	var (
		tr      transition
		company CompanyInfo
		creds   *RazorpayCredentials
	)
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		for i := range sel.Orders {
			o := &sel.Orders[i]
			if !match(*o) {
				continue
			}
			tr.before = *o
			applyUpdate(o, upd)
			if extra != nil {
				extra(o)
			}
			tr.after = *o
			company = sel.CompanyInfo
			creds = nil
			if sel.Razorpay != nil {
				c := *sel.Razorpay
				creds = &c
			}
			return nil
		}
		return ErrOrderNotFound
	})
	if err != nil {
		return UpdateResult{}, err
	}

	res := UpdateResult{
		Order:                tr.after,
		OrderStatusChanged:   tr.orderStatusChanged(),
		PaymentStatusChanged: tr.paymentStatusChanged(),
	}
	var notified []string
	for _, n := range s.planNotifications(ctx, sellerID, tr, upd, company, creds, &res) {
		if s.notify(ctx, n) {
			res.Notified = append(res.Notified, n)
			notified = append(notified, string(n.Kind))
		}
	}
	if res.OrderStatusChanged || res.PaymentStatusChanged {
		s.emit(ctx, EventOrderStatusChanged, sellerID, tr.after.OrderID, StatusChangedPayload{
			OrderID:           tr.after.OrderID,
			OrderStatus:       tr.after.OrderStatus,
			PaymentStatus:     tr.after.PaymentStatus,
			PrevOrderStatus:   tr.before.OrderStatus,
			PrevPaymentStatus: tr.before.PaymentStatus,
			Notified:          notified,
		})
	}
	return res, nil
}

// planNotifications decides what the buyer is told about a transition. A
// payment request may create a gateway link on the way.
func (s *Service) planNotifications(ctx context.Context, sellerID string, tr transition, upd OrderUpdate, company CompanyInfo, creds *RazorpayCredentials, res *UpdateResult) []Notification {
	o := tr.after
	if o.BuyerPhone == "" {
		return nil
	}
	base := Notification{SellerID: sellerID, OrderID: o.OrderID, To: o.BuyerPhone}

	var out []Notification
	if tr.orderStatusChanged() {
		n := base
		n.Kind, n.Text = NotifyOrderStatus, orderStatusMessage(o)
		if upd.CustomMessage != "" {
			n.Kind, n.Text = NotifyCustomMessage, upd.CustomMessage
		}
		out = append(out, n)
	}

	if !tr.paymentStatusChanged() {
		return out
	}
	n := base
	n.Kind = NotifyPayment
	switch {
	case o.PaymentStatus == PaymentRequested:
		n.Text = s.paymentRequestText(ctx, sellerID, o, company, creds, res)
		n.Attachment = invoiceAttachment(upd.Invoice, o.OrderID)
	case upd.CustomMessage != "":
		n.Kind, n.Text = NotifyCustomMessage, upd.CustomMessage
	case o.PaymentStatus == PaymentCompleted:
		n.Text = paymentCompletedMessage(o)
	case o.PaymentStatus == PaymentPending:
		n.Text = paymentPendingMessage(o)
	default:
		return out
	}
	return append(out, n)
}

func (s *Service) paymentRequestText(ctx context.Context, sellerID string, o Order, company CompanyInfo, creds *RazorpayCredentials, res *UpdateResult) string {
	if creds.Usable() && s.Payments != nil {
		link, err := s.Payments.CreatePaymentLink(ctx, *creds, PaymentLinkRequest{
			SellerID:      sellerID,
			OrderID:       o.OrderID,
			Amount:        o.TotalAmount,
			CustomerName:  orDefault(o.BuyerName, "Customer"),
			CustomerPhone: o.BuyerPhone,
			Description:   fmt.Sprintf("Payment for Order #%d", o.OrderID),
		})
		if err == nil {
			res.PaymentLink = &link
			s.recordPaymentLink(ctx, sellerID, o.OrderID, link)
			return paymentLinkMessage(o, link.URL)
		}
		log.Printf("[orders] payment link for order=%d seller=%s failed, falling back: %v", o.OrderID, sellerID, err)
	}
	if company.UPIID != "" {
		return upiMessage(o, company.UPIID)
	}
	return contactSellerMessage(o)
}

func (s *Service) recordPaymentLink(ctx context.Context, sellerID string, orderID int, link PaymentLink) {
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		i := sel.orderIndex(orderID)
		if i < 0 {
			return ErrOrderNotFound
		}
		sel.Orders[i].PaymentLinkID = link.ID
		return nil
	})
	if err != nil {
		log.Printf("[orders] store payment link id order=%d seller=%s: %v", orderID, sellerID, err)
		return
	}
	s.emit(ctx, EventPaymentLinkCreated, sellerID, orderID, PaymentLinkCreatedPayload{
		OrderID:       orderID,
		PaymentLinkID: link.ID,
		ShortURL:      link.URL,
	})
}

func invoiceAttachment(a *Attachment, orderID int) *Attachment {
	if a == nil || len(a.Data) == 0 {
		return nil
	}
	if a.ContentType != "application/pdf" {
		log.Printf("[orders] invoice for order=%d dropped: content type %q is not application/pdf", orderID, a.ContentType)
		return nil
	}
	if a.Filename == "" {
		inv := *a
		inv.Filename = fmt.Sprintf("invoice_order_%d.pdf", orderID)
		return &inv
	}
	return a
}
