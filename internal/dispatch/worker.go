package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Worker consumes order.notification and delivers each message once.
type Worker struct {
	Notifier orders.Notifier
	Redis    *redis.Client // nil disables dedup
	Name     string
}

// HandleNotification: dipasang sebagai handler consumer.
func (w *Worker) HandleNotification(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("[notifier] drop undecodable message offset=%d: %v", m.Offset, err)
		return nil
	}
	if env.EventType != orders.EventNotificationQueued {
		return nil
	} // ignore

	n, err := kafkax.UnwrapPayload[orders.Notification](env.Payload)
	if err != nil {
		log.Printf("[notifier] drop event=%s: %v", env.EventID, err)
		return nil
	}
	if n.To == "" {
		return nil
	}

	// 2) dedup via Redis (pakai event_id)
	if w.Redis != nil {
		first, err := redisx.FirstSeen(ctx, w.Redis, w.name(), env.EventID)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}
	}

	// 3) kirim; kalau gagal, hapus tanda dedup supaya bisa di-retry
	if err := w.Notifier.Notify(ctx, n); err != nil {
		if w.Redis != nil {
			if ferr := redisx.Forget(ctx, w.Redis, w.name(), env.EventID); ferr != nil {
				err = errors.Join(err, ferr)
			}
		}
		return err
	}
	log.Printf("[notifier] sent %s order=%d seller=%s", n.Kind, n.OrderID, n.SellerID)
	return nil
}

func (w *Worker) name() string {
	if w.Name == "" {
		return "notifier"
	}
	return w.Name
}
