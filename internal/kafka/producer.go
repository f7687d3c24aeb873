package kafka

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in memory and writes them from one goroutine.
// Topic is chosen per message, so one Producer serves every topic.
// Publish after Close drops the message.
type Producer struct {
	w     messageWriter
	inbox chan kafka.Message

	mu        sync.RWMutex  // Publish holds R while sending; Close holds W to close inbox
	stopping  chan struct{} // closed before inbox, wakes blocked Publish calls
	closeCh   chan struct{}
	closeOnce sync.Once
}

// MaxMessageBytes is the largest message the writer accepts; bigger ones
// fail in the Completion callback.
const MaxMessageBytes = 1 << 20

func NewProducer(brokers []string, buf int) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchBytes:             MaxMessageBytes,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true, // fire-and-forget; error dilaporkan lewat Completion
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Printf("[kafka] write %d message(s) to %s: %v", len(msgs), msgs[0].Topic, err)
			}
		},
	}
	return newProducer(w, buf)
}

func newProducer(w messageWriter, buf int) *Producer {
	return &Producer{
		w:        w,
		inbox:    make(chan kafka.Message, buf),
		stopping: make(chan struct{}),
		closeCh:  make(chan struct{}),
	}
}

// Start runs the write loop until ctx is done or Close is called. Buffered
// messages are flushed either way.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.Close()
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				p.write(m)
			}
		}
	}()
}

func (p *Producer) drain() {
	for m := range p.inbox {
		p.write(m)
	}
	_ = p.w.Close()
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		log.Printf("[kafka] publish topic=%s key=%s: %v", m.Topic, m.Key, err)
	}
}

func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	select {
	case <-p.stopping:
		log.Printf("[kafka] producer closed, drop topic=%s key=%s", topic, key)
		return
	default:
	}
	select {
	case p.inbox <- m:
	case <-p.stopping:
		log.Printf("[kafka] producer closed, drop topic=%s key=%s", topic, key)
	}
}

// Tutup channel supaya goroutine nge-flush sisa pesan lalu exit rapi.
// stopping ditutup dulu biar Publish yang lagi nunggu lepas RLock.
func (p *Producer) Close() {
	p.closeOnce.Do(func() {
		close(p.stopping)
		p.mu.Lock()
		close(p.inbox)
		p.mu.Unlock()
	})
}

// Tunggu sampai goroutine selesai.
func (p *Producer) WaitClosed() { <-p.closeCh }
