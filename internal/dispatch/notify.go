package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

// Sender is the messaging channel a notification ends up on.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
	SendDocument(ctx context.Context, to string, doc orders.Attachment, caption string) error
}

// Direct delivers notifications synchronously.
type Direct struct {
	Sender Sender
}

func (d *Direct) Notify(ctx context.Context, n orders.Notification) error {
	if n.Attachment != nil {
		if err := d.Sender.SendDocument(ctx, n.To, *n.Attachment, n.Text); err != nil {
			return fmt.Errorf("send document: %w", err)
		}
		return nil
	}
	if err := d.Sender.SendText(ctx, n.To, n.Text); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// MaxQueuedAttachment caps an attachment carried inside a queued
// notification. The payload is base64 in JSON, so half the message limit
// leaves room for the encoding and the envelope.
const MaxQueuedAttachment = kafkax.MaxMessageBytes / 2

// Queue hands notifications to the notifier worker over Kafka.
type Queue struct {
	Producer    Publisher
	ServiceName string
}

// Notify queues n. An attachment over MaxQueuedAttachment is dropped and
// the text goes out alone.
func (q *Queue) Notify(_ context.Context, n orders.Notification) error {
	if n.Attachment != nil && len(n.Attachment.Data) > MaxQueuedAttachment {
		log.Printf("[dispatch] order=%d seller=%s: %s is %d bytes, queueing text only",
			n.OrderID, n.SellerID, n.Attachment.Filename, len(n.Attachment.Data))
		n.Attachment = nil
	}
	env := NewEnvelope(orders.EventNotificationQueued, q.ServiceName, n.SellerID, n.OrderID, time.Time{}, n)
	q.Producer.Publish(orders.TopicNotification, orders.PartitionKey(n.SellerID, n.OrderID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(env.EventType, env.EventVersion)...)
	return nil
}
