package whatsapp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// InboundMessage is a buyer's text message from the webhook.
type InboundMessage struct {
	ID     string
	From   string
	Name   string
	Text   string
	SentAt time.Time
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID        string `json:"id"`
					From      string `json:"from"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWebhook extracts text messages. Status callbacks and non-text
// messages are skipped; other objects yield nothing.
func ParseWebhook(body []byte) ([]InboundMessage, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode whatsapp webhook: %w", err)
	}
	if p.Object != "whatsapp_business_account" {
		return nil, nil
	}
	var out []InboundMessage
	for _, e := range p.Entry {
		for _, ch := range e.Changes {
			names := map[string]string{}
			for _, c := range ch.Value.Contacts {
				names[c.WaID] = c.Profile.Name
			}
			for _, m := range ch.Value.Messages {
				if m.Type != "text" {
					continue
				}
				msg := InboundMessage{ID: m.ID, From: m.From, Name: names[m.From], Text: m.Text.Body}
				if sec, err := strconv.ParseInt(m.Timestamp, 10, 64); err == nil {
					msg.SentAt = time.Unix(sec, 0).UTC()
				}
				out = append(out, msg)
			}
		}
	}
	return out, nil
}
