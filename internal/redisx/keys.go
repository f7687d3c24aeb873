package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{id} (id = event_id, razorpay event id, wamid)
	KeyDedup = "dedup:%s:%s"

	// Riwayat chat per seller+buyer: conv:{seller_id}:{phone} -> list JSON, terbaru di depan
	KeyConversation = "conv:%s:%s"

	// Lock RMW lintas record: lock:{kind}:{id}
	KeyLock = "lock:%s:%s"
)

var (
	TTLDedup        = 48 * time.Hour
	TTLConversation = 7 * 24 * time.Hour
	TTLLock         = 10 * time.Second
)

// ConversationWindow is how many messages a conversation keeps.
const ConversationWindow = 10
