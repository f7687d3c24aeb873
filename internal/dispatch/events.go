package dispatch

import (
	"context"
	"fmt"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

// NewEnvelope wraps payload in the versioned event envelope every topic carries.
func NewEnvelope(eventType, producer, sellerID string, orderID int, occurredAt time.Time, payload any) orders.Envelope {
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    occurredAt,
		Producer:      producer,
		CorrelationID: fmt.Sprintf("%s:%d", sellerID, orderID),
		Payload:       kafkax.MustMarshal(payload),
	}
}

// KafkaEvents publishes order lifecycle events, one topic per event family.
type KafkaEvents struct {
	Producer    Publisher
	ServiceName string
}

func (k *KafkaEvents) Emit(_ context.Context, ev orders.Event) {
	topic, ok := orders.TopicFor(ev.Type)
	if !ok {
		log.Printf("[dispatch] no topic for event %s", ev.Type)
		return
	}
	env := NewEnvelope(ev.Type, k.ServiceName, ev.SellerID, ev.OrderID, ev.OccurredAt, ev.Payload)
	k.Producer.Publish(topic, orders.PartitionKey(ev.SellerID, ev.OrderID), kafkax.MustMarshal(env),
		kafkax.EventHeaders(ev.Type, env.EventVersion)...)
}

// Inbound publishes a buyer's WhatsApp message for the agent runtime, keyed
// by phone so one conversation stays ordered.
func (k *KafkaEvents) Inbound(_ context.Context, msg orders.WhatsAppMessagePayload) {
	env := NewEnvelope(orders.EventWhatsAppMessage, k.ServiceName, msg.SellerID, 0, msg.SentAt, msg)
	env.CorrelationID = msg.From
	k.Producer.Publish(orders.TopicWhatsAppInbound, []byte(msg.From), kafkax.MustMarshal(env),
		kafkax.EventHeaders(env.EventType, env.EventVersion)...)
}
