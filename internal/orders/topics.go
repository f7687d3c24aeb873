package orders

import "strconv"

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status.changed"
	TopicPaymentLinkCreated = "order.payment.link_created"
	TopicPaymentCompleted   = "order.payment.completed"
	TopicCancellation       = "order.cancellation"
	TopicNotification       = "order.notification"
	TopicWhatsAppInbound    = "whatsapp.inbound"
)

// TopicFor maps an event type to its topic. Unknown types go nowhere.
func TopicFor(eventType string) (string, bool) {
	switch eventType {
	case EventOrderPlaced:
		return TopicOrderPlaced, true
	case EventOrderStatusChanged:
		return TopicOrderStatusChanged, true
	case EventPaymentLinkCreated:
		return TopicPaymentLinkCreated, true
	case EventPaymentCompleted:
		return TopicPaymentCompleted, true
	case EventCancellationRequested, EventCancellationApproved, EventCancellationRejected:
		return TopicCancellation, true
	case EventNotificationQueued:
		return TopicNotification, true
	case EventWhatsAppMessage:
		return TopicWhatsAppInbound, true
	}
	return "", false
}

// Partition key = seller_id:order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(sellerID string, orderID int) []byte {
	return []byte(sellerID + ":" + strconv.Itoa(orderID))
}
