package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

func dial(t *testing.T, srv *httptest.Server, seller string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?seller=" + seller
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RoutesEventsBySeller(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("seller"))
	}))
	defer srv.Close()

	a := dial(t, srv, "s1")
	b := dial(t, srv, "s2")
	waitFor(t, func() bool { return hub.Connections("s1") == 1 && hub.Connections("s2") == 1 })

	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	hub.Emit(context.Background(), orders.Event{Type: orders.EventOrderPlaced, SellerID: "s1", OrderID: 7, OccurredAt: at})

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := a.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, orders.EventOrderPlaced, msg.Type)
	assert.Equal(t, 7, msg.OrderID)
	assert.True(t, at.Equal(msg.OccurredAt))

	_ = b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = b.ReadMessage()
	assert.Error(t, err, "s2 must not see s1's events")
}

func TestHub_ClientLeaves(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, "s1")
	}))
	defer srv.Close()

	conn := dial(t, srv, "s1")
	waitFor(t, func() bool { return hub.Connections("s1") == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.Connections("s1") == 0 })

	// no listeners is fine
	hub.Emit(context.Background(), orders.Event{Type: orders.EventOrderPlaced, SellerID: "s1"})
}
