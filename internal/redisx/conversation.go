package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Message struct {
	Role string    `json:"role"` // user | assistant
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// ConversationLog keeps the last ConversationWindow messages per seller and
// buyer.
type ConversationLog struct {
	RDB *redis.Client
}

func (c *ConversationLog) Append(ctx context.Context, sellerID, phone string, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(KeyConversation, sellerID, phone)
	_, err = c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, b)
		p.LTrim(ctx, key, 0, ConversationWindow-1)
		p.Expire(ctx, key, TTLConversation)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	return nil
}

// Recent returns up to n messages, oldest first.
func (c *ConversationLog) Recent(ctx context.Context, sellerID, phone string, n int) ([]Message, error) {
	if n <= 0 || n > ConversationWindow {
		n = ConversationWindow
	}
	raw, err := c.RDB.LRange(ctx, fmt.Sprintf(KeyConversation, sellerID, phone), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read conversation: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m Message
		if err := json.Unmarshal([]byte(raw[i]), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}
