package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	kafkax "github.com/ariefcatur/go-seller-assistant/internal/kafka"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic string
	key   string
	value []byte
	hdrs  []kafkago.Header
}

type memPublisher struct {
	mu  sync.Mutex
	out []published
}

func (p *memPublisher) Publish(topic string, key, value []byte, headers ...kafkago.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, published{topic, string(key), value, headers})
}

type memSender struct {
	texts []string
	docs  []string
	err   error
}

func (s *memSender) SendText(_ context.Context, to, text string) error {
	if s.err != nil {
		return s.err
	}
	s.texts = append(s.texts, to+"|"+text)
	return nil
}

func (s *memSender) SendDocument(_ context.Context, to string, doc orders.Attachment, caption string) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, to+"|"+doc.Filename+"|"+caption)
	return nil
}

func TestKafkaEvents_Emit(t *testing.T) {
	pub := &memPublisher{}
	k := &KafkaEvents{Producer: pub, ServiceName: "seller-api"}
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	k.Emit(context.Background(), orders.Event{
		Type:       orders.EventCancellationRequested,
		SellerID:   "s1",
		OrderID:    5,
		OccurredAt: at,
		Payload:    orders.CancellationPayload{OrderID: 5, Outcome: "requested"},
	})
	k.Emit(context.Background(), orders.Event{Type: "Unknown"})

	require.Len(t, pub.out, 1)
	msg := pub.out[0]
	assert.Equal(t, orders.TopicCancellation, msg.topic)
	assert.Equal(t, "s1:5", msg.key)

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(msg.value, &env))
	assert.Equal(t, orders.EventCancellationRequested, env.EventType)
	assert.Equal(t, "seller-api", env.Producer)
	assert.Equal(t, "s1:5", env.CorrelationID)
	assert.True(t, env.OccurredAt.Equal(at))
	assert.NotEmpty(t, env.EventID)

	p, err := kafkax.UnwrapPayload[orders.CancellationPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "requested", p.Outcome)
}

func TestKafkaEvents_Inbound(t *testing.T) {
	pub := &memPublisher{}
	k := &KafkaEvents{Producer: pub, ServiceName: "seller-api"}
	k.Inbound(context.Background(), orders.WhatsAppMessagePayload{MessageID: "wamid.1", From: "9199", Text: "hi", SellerID: "1"})

	require.Len(t, pub.out, 1)
	assert.Equal(t, orders.TopicWhatsAppInbound, pub.out[0].topic)
	assert.Equal(t, "9199", pub.out[0].key)
}

func TestDirect(t *testing.T) {
	s := &memSender{}
	d := &Direct{Sender: s}
	ctx := context.Background()

	require.NoError(t, d.Notify(ctx, orders.Notification{To: "9199", Text: "hello"}))
	require.NoError(t, d.Notify(ctx, orders.Notification{
		To:         "9199",
		Text:       "pay",
		Attachment: &orders.Attachment{Filename: "inv.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
	}))
	assert.Equal(t, []string{"9199|hello"}, s.texts)
	assert.Equal(t, []string{"9199|inv.pdf|pay"}, s.docs)

	s.err = errors.New("graph api down")
	assert.Error(t, d.Notify(ctx, orders.Notification{To: "9199", Text: "x"}))
}

func queued(t *testing.T, n orders.Notification) kafkago.Message {
	t.Helper()
	pub := &memPublisher{}
	q := &Queue{Producer: pub, ServiceName: "seller-api"}
	require.NoError(t, q.Notify(context.Background(), n))
	require.Len(t, pub.out, 1)
	assert.Equal(t, orders.TopicNotification, pub.out[0].topic)
	return kafkago.Message{Value: pub.out[0].value, Headers: pub.out[0].hdrs}
}

func TestQueue_OversizedAttachmentFallsBackToText(t *testing.T) {
	s := &memSender{}
	w := &Worker{Notifier: &Direct{Sender: s}}
	ctx := context.Background()

	big := orders.Notification{
		Kind: orders.NotifyPayment, SellerID: "s1", OrderID: 3, To: "9199", Text: "please pay",
		Attachment: &orders.Attachment{Filename: "invoice.pdf", ContentType: "application/pdf", Data: make([]byte, MaxQueuedAttachment+1)},
	}
	m := queued(t, big)
	assert.Less(t, len(m.Value), kafkax.MaxMessageBytes)
	require.NoError(t, w.HandleNotification(ctx, m))
	assert.Equal(t, []string{"9199|please pay"}, s.texts)
	assert.Empty(t, s.docs)

	small := big
	small.Attachment = &orders.Attachment{Filename: "invoice.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}
	m = queued(t, small)
	require.NoError(t, w.HandleNotification(ctx, m))
	assert.Equal(t, []string{"9199|invoice.pdf|please pay"}, s.docs)
}

func TestWorker_DeliversOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := &memSender{}
	w := &Worker{Notifier: &Direct{Sender: s}, Redis: rdb}
	m := queued(t, orders.Notification{Kind: orders.NotifyOrderStatus, SellerID: "s1", OrderID: 2, To: "9199", Text: "shipped"})
	assert.Equal(t, orders.EventNotificationQueued, kafkax.Header(m, kafkax.HeaderEventType))

	ctx := context.Background()
	require.NoError(t, w.HandleNotification(ctx, m))
	require.NoError(t, w.HandleNotification(ctx, m))
	assert.Equal(t, []string{"9199|shipped"}, s.texts)
}

func TestWorker_FailedSendCanRetry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := &memSender{err: errors.New("timeout")}
	w := &Worker{Notifier: &Direct{Sender: s}, Redis: rdb}
	m := queued(t, orders.Notification{To: "9199", Text: "retry me"})
	ctx := context.Background()

	assert.Error(t, w.HandleNotification(ctx, m))
	s.err = nil
	require.NoError(t, w.HandleNotification(ctx, m))
	assert.Equal(t, []string{"9199|retry me"}, s.texts)
}

func TestWorker_IgnoresForeignAndBrokenMessages(t *testing.T) {
	s := &memSender{}
	w := &Worker{Notifier: &Direct{Sender: s}}
	ctx := context.Background()

	assert.NoError(t, w.HandleNotification(ctx, kafkago.Message{Value: []byte("not json")}))
	env := NewEnvelope(orders.EventOrderPlaced, "x", "s1", 1, time.Time{}, orders.OrderPlacedPayload{})
	assert.NoError(t, w.HandleNotification(ctx, kafkago.Message{Value: kafkax.MustMarshal(env)}))
	assert.Empty(t, s.texts)
}
