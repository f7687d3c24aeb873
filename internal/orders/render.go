package orders

import (
	"fmt"
	"strings"
)

func money(o Order) string { return o.TotalAmount.StringFixed(2) }

// itemsSummary is the one-line form used in order confirmations: "2x Tea, 1x Cake".
func itemsSummary(items []CartItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.ProductName))
	}
	return strings.Join(parts, ", ")
}

// itemsDisplay is the block form used in WhatsApp notifications.
func itemsDisplay(o Order) string {
	switch len(o.Items) {
	case 0:
		return "your order"
	case 1:
		return fmt.Sprintf("%s x%d", o.Items[0].ProductName, o.Items[0].Quantity)
	}
	lines := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, fmt.Sprintf("- %s x%d", it.ProductName, it.Quantity))
	}
	return strings.Join(lines, "\n")
}

func renderHistory(b *Buyer) string {
	if len(b.Orders) == 0 {
		name := b.Name
		if name == "" {
			name = "there"
		}
		return fmt.Sprintf("Hi %s! You haven't placed any orders yet.", name)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Buyer: %s\nTotal Orders: %d\n\n", b.Name, len(b.Orders))
	for i, o := range b.Orders {
		fmt.Fprintf(&sb, "Order %d:\n", i+1)
		fmt.Fprintf(&sb, "- Order ID: %d\n", o.OrderID)
		fmt.Fprintf(&sb, "- Date: %s\n", o.CreatedAt.Format("2006-01-02 15:04"))
		sb.WriteString("- Items:\n")
		for _, it := range o.Items {
			fmt.Fprintf(&sb, "  * %s x%d - ₹%s\n", it.ProductName, it.Quantity, it.Subtotal.StringFixed(2))
		}
		fmt.Fprintf(&sb, "- Total: ₹%s\n", money(o))
		fmt.Fprintf(&sb, "- Status: %s\n", orDefault(string(o.OrderStatus), string(OrderReceived)))
		fmt.Fprintf(&sb, "- Payment: %s\n", orDefault(string(o.PaymentStatus), string(PaymentPending)))
		fmt.Fprintf(&sb, "- Delivery: %s\n\n", o.DeliveryAddress)
	}
	return sb.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orderStatusMessage(o Order) string {
	return fmt.Sprintf("🛒 *Order Status Update* 🛒\n\n"+
		"Order ID: #%d\n"+
		"Items:\n%s\n\n"+
		"Status: *%s*\n\n"+
		"Thank you for your order!", o.OrderID, itemsDisplay(o), o.OrderStatus)
}

func paymentRequestHeader(o Order) string {
	return fmt.Sprintf("💳 *Payment Request* 💳\n\n"+
		"Order ID: #%d\n"+
		"Items:\n%s\n"+
		"Amount: *₹%s*\n\n", o.OrderID, itemsDisplay(o), money(o))
}

func paymentLinkMessage(o Order, url string) string {
	return paymentRequestHeader(o) +
		"Please complete your payment using this secure link:\n" +
		"🔗 " + url + "\n\n" +
		"After payment, your order will be automatically confirmed.\n\n" +
		"Thank you! 🙏"
}

func upiMessage(o Order, upiID string) string {
	return paymentRequestHeader(o) +
		"Please pay to UPI ID:\n" +
		"📱 *" + upiID + "*\n\n" +
		"After payment, please share the transaction screenshot for verification.\n\n" +
		"Thank you! 🙏"
}

func contactSellerMessage(o Order) string {
	return paymentRequestHeader(o) +
		"Please contact the seller for payment details.\n\n" +
		"Thank you! 🙏"
}

func paymentCompletedMessage(o Order) string {
	return fmt.Sprintf("✅ *Payment Confirmed* ✅\n\n"+
		"Order ID: #%d\n"+
		"Items:\n%s\n"+
		"Amount: ₹%s\n\n"+
		"Your payment has been received and confirmed!\n"+
		"Your order will be processed shortly.\n\n"+
		"Thank you for your purchase! 🎉", o.OrderID, itemsDisplay(o), money(o))
}

func paymentPendingMessage(o Order) string {
	return fmt.Sprintf("⏳ *Payment Status Update* ⏳\n\n"+
		"Order ID: #%d\n"+
		"Items:\n%s\n"+
		"Amount: ₹%s\n\n"+
		"Payment status: *Pending*\n\n"+
		"We'll notify you once payment is requested.\n\n"+
		"Thank you! 🙏", o.OrderID, itemsDisplay(o), money(o))
}

// ItemsSummary is the one-line item list, as shown in confirmations.
func (o Order) ItemsSummary() string { return itemsSummary(o.Items) }
