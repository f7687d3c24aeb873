package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	var got outbound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PHONE/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "PHONE", "tok")
	require.NoError(t, c.SendText(context.Background(), "919800000001", "hello"))
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "text", got.Type)
	require.NotNil(t, got.Text)
	assert.Equal(t, "hello", got.Text.Body)
}

func TestSendText_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "PHONE", "bad").SendText(context.Background(), "1", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid OAuth access token")
}

func TestSendDocument(t *testing.T) {
	var doc outbound
	var uploaded []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/PHONE/media":
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whatsapp", r.FormValue("messaging_product"))
			f, hdr, err := r.FormFile("file")
			if assert.NoError(t, err) {
				assert.Equal(t, "inv.pdf", hdr.Filename)
				uploaded, _ = io.ReadAll(f)
			}
			_, _ = w.Write([]byte(`{"id":"media-1"}`))
		case "/PHONE/messages":
			b, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(b, &doc))
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "PHONE", "tok")
	err := c.SendDocument(context.Background(), "9199", orders.Attachment{
		Filename: "inv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4"),
	}, "Payment request")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(uploaded))
	assert.Equal(t, "document", doc.Type)
	require.NotNil(t, doc.Document)
	assert.Equal(t, "media-1", doc.Document.ID)
	assert.Equal(t, "Payment request", doc.Document.Caption)
}

func TestParseWebhook(t *testing.T) {
	body := []byte(`{
	  "object": "whatsapp_business_account",
	  "entry": [{"changes": [{"value": {
	    "contacts": [{"wa_id": "919800000001", "profile": {"name": "Asha"}}],
	    "messages": [
	      {"id": "wamid.A", "from": "919800000001", "timestamp": "1735689600", "type": "text", "text": {"body": "show me tea"}},
	      {"id": "wamid.B", "from": "919800000001", "timestamp": "1735689601", "type": "image"}
	    ]
	  }}]}]
	}`)
	msgs, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "wamid.A", msgs[0].ID)
	assert.Equal(t, "Asha", msgs[0].Name)
	assert.Equal(t, "show me tea", msgs[0].Text)
	assert.Equal(t, int64(1735689600), msgs[0].SentAt.Unix())

	msgs, err = ParseWebhook([]byte(`{"object":"page"}`))
	require.NoError(t, err)
	assert.Empty(t, msgs)

	_, err = ParseWebhook([]byte(`nope`))
	assert.Error(t, err)
}
