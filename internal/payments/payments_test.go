package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(24100), ToPaise(decimal.RequireFromString("241")))
	assert.Equal(t, int64(12051), ToPaise(decimal.RequireFromString("120.505")))
	assert.Equal(t, int64(1999), ToPaise(decimal.RequireFromString("19.99")))
}

func TestCreatePaymentLink(t *testing.T) {
	var got createLinkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_links", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_key", user)
		assert.Equal(t, "rzp_secret", pass)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"plink_9","short_url":"https://rzp.io/i/xyz"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "https://shop.example/paid")
	link, err := c.CreatePaymentLink(context.Background(),
		orders.RazorpayCredentials{APIKey: "rzp_key", APISecret: "rzp_secret", Enabled: true},
		orders.PaymentLinkRequest{
			SellerID:      "s1",
			OrderID:       4,
			Amount:        decimal.RequireFromString("241.50"),
			CustomerName:  "Asha",
			CustomerPhone: "919800000001",
			Description:   "Payment for Order #4",
		})
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentLink{ID: "plink_9", URL: "https://rzp.io/i/xyz"}, link)

	assert.Equal(t, int64(24150), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.False(t, got.Notify.SMS)
	assert.True(t, got.ReminderEnable)
	assert.Equal(t, map[string]string{"seller_id": "s1", "order_id": "4"}, got.Notes)
	assert.Equal(t, "https://shop.example/paid", got.CallbackURL)
	assert.Equal(t, "Asha", got.Customer.Name)
}

func TestCreatePaymentLink_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	creds := orders.RazorpayCredentials{APIKey: "k", APISecret: "s", Enabled: true}

	_, err := c.CreatePaymentLink(context.Background(), creds, orders.PaymentLinkRequest{Amount: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.ErrorIs(t, err, orders.ErrGateway)
	assert.Contains(t, err.Error(), "Authentication failed")

	_, err = c.CreatePaymentLink(context.Background(), creds, orders.PaymentLinkRequest{Amount: decimal.Zero})
	assert.ErrorIs(t, err, orders.ErrGateway)

	srv.Close()
	_, err = c.CreatePaymentLink(context.Background(), creds, orders.PaymentLinkRequest{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, orders.ErrGateway)
}

const paidEvent = `{
  "event": "payment_link.paid",
  "payload": {
    "payment_link": {"entity": {"id": "plink_9", "status": "paid", "notes": {"seller_id": "s1", "order_id": 4}}},
    "payment": {"entity": {"id": "pay_77", "amount": 24150, "status": "captured"}}
  }
}`

func TestWebhook(t *testing.T) {
	body := []byte(paidEvent)
	sig := Sign(body, "whsec")
	assert.True(t, VerifySignature(body, sig, "whsec"))
	assert.False(t, VerifySignature(body, sig, "other"))
	assert.False(t, VerifySignature(body, "", "whsec"))
	assert.False(t, VerifySignature(append(body, ' '), sig, "whsec"))

	ev, err := ParseWebhook(body)
	require.NoError(t, err)
	paid, ok := ev.Paid()
	require.True(t, ok)
	assert.Equal(t, PaidLink{PaymentLinkID: "plink_9", PaymentID: "pay_77", SellerID: "s1", OrderID: "4"}, paid)

	ev, err = ParseWebhook([]byte(`{"event":"payment.captured","payload":{}}`))
	require.NoError(t, err)
	_, ok = ev.Paid()
	assert.False(t, ok)

	_, err = ParseWebhook([]byte(`{`))
	assert.Error(t, err)
}
