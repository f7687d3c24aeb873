package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	fbauth "firebase.google.com/go/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-seller-assistant/internal/auth"
	"github.com/ariefcatur/go-seller-assistant/internal/export"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/ariefcatur/go-seller-assistant/internal/payments"
	"github.com/ariefcatur/go-seller-assistant/internal/redisx"
)

const (
	seller = "asha@example.com"
	buyer  = "919800000001"
)

type captureNotifier struct {
	mu   sync.Mutex
	sent []orders.Notification
}

func (c *captureNotifier) Notify(_ context.Context, n orders.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n)
	return nil
}

func (c *captureNotifier) all() []orders.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]orders.Notification(nil), c.sent...)
}

type capturePublisher struct{ msgs []orders.WhatsAppMessagePayload }

func (c *capturePublisher) Inbound(_ context.Context, m orders.WhatsAppMessagePayload) {
	c.msgs = append(c.msgs, m)
}

type stubVerifier struct{ claims map[string]interface{} }

func (s stubVerifier) VerifyIDTokenAndCheckRevoked(_ context.Context, tok string) (*fbauth.Token, error) {
	if tok != "good" {
		return nil, assert.AnError
	}
	return &fbauth.Token{UID: "uid", Claims: s.claims}, nil
}

type env struct {
	t        *testing.T
	svc      *orders.Service
	notifier *captureNotifier
	issuer   *auth.Issuer
	rdb      *redis.Client
	inbound  *capturePublisher
	srv      http.Handler
	token    string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := &env{t: t, notifier: &captureNotifier{}, inbound: &capturePublisher{}, rdb: rdb}
	e.svc = &orders.Service{
		Store:    orders.NewMemStore(),
		Notifier: e.notifier,
		Now:      func() time.Time { return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC) },
	}
	e.issuer = auth.NewIssuer("test-secret", time.Hour)

	r := NewRouter()
	(&SellerHandler{
		Service:       e.svc,
		Issuer:        e.issuer,
		Verifier:      stubVerifier{claims: map[string]interface{}{"email": seller, "name": "Asha", "picture": "https://pic"}},
		AllowDevLogin: true,
	}).Register(r)
	(&WebhookHandler{
		Service:        e.svc,
		Redis:          rdb,
		RazorpaySecret: "global-secret",
		VerifyToken:    "verify-me",
		SellerID:       seller,
		Conversations:  &redisx.ConversationLog{RDB: rdb},
		Inbound:        e.inbound,
	}).Register(r)
	e.srv = r

	tok, err := e.issuer.Issue(auth.Claims{SellerID: seller, Email: seller})
	require.NoError(t, err)
	e.token = tok
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// seedOrder places one order for buyer with 2x Masala Tea.
func (e *env) seedOrder() int {
	e.t.Helper()
	ctx := context.Background()
	p, err := e.svc.CreateProduct(ctx, seller, orders.ProductInput{Title: "Masala Tea", Price: decimal.RequireFromString("120.50"), StockQuantity: 5})
	require.NoError(e.t, err)
	_, err = e.svc.CreateBuyerProfile(ctx, buyer, "Ravi")
	require.NoError(e.t, err)
	_, err = e.svc.AddToCart(ctx, seller, buyer, p.ID, 2)
	require.NoError(e.t, err)
	conf, err := e.svc.PlaceOrder(ctx, orders.PlaceOrderInput{SellerID: seller, BuyerPhone: buyer, DeliveryAddress: "MG Road"})
	require.NoError(e.t, err)
	return conf.OrderID
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.token = ""

	w := e.do(http.MethodPost, "/api/login", map[string]string{"seller_id": "dev-seller"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "dev-seller", body["seller_id"])
	claims, err := e.issuer.Parse(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "dev-seller", claims.SellerID)

	w = e.do(http.MethodPost, "/api/login", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/auth/google", map[string]string{"credential": "good"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, seller, body["seller_id"])
	assert.Equal(t, true, body["is_new_user"])
	assert.Equal(t, "https://pic", body["picture"])

	w = e.do(http.MethodPost, "/api/auth/google", map[string]string{"credential": "bad"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodGet, "/api/data", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOnboardingAndCompany(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/onboarding", map[string]string{"company_name": "Chai Corner", "upi_id": "chai@upi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/company", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Chai Corner", body["company_name"])
	assert.Equal(t, "India", body["country"])
	assert.Equal(t, seller, body["email"])

	// partial update keeps the other fields
	w = e.do(http.MethodPost, "/api/company", map[string]string{"city": "Pune"})
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodGet, "/api/seller_info", nil)
	body = decode(t, w)
	assert.Equal(t, "Chai Corner", body["company_name"])
	assert.Equal(t, "chai@upi", body["upi_id"])

	w = e.do(http.MethodPost, "/api/update_upi", map[string]string{"upi_id": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodPost, "/api/update_upi", map[string]string{"upi_id": "new@upi"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProductRoutes(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/api/products", `{"title":"Masala Tea","price":120.5,"stock_quantity":4}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode(t, w)["product"].(map[string]any)
	assert.Equal(t, float64(1), product["id"])

	w = e.do(http.MethodPut, "/api/products/1", `{"price":99}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(99), decode(t, w)["product"].(map[string]any)["price"])

	w = e.do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPut, "/api/products/abc", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodDelete, "/api/products/7", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/api/products/1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/products", `{"title":""}`).Code)
}

func TestUpdateOrder_JSON(t *testing.T) {
	e := newEnv(t)
	id := e.seedOrder()

	w := e.do(http.MethodPut, "/api/orders/1", map[string]string{"order_status": "To Deliver"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["notified"])

	sent := e.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, buyer, sent[0].To)
	assert.Contains(t, sent[0].Text, "To Deliver")

	w = e.do(http.MethodGet, "/api/orders?status=To+Deliver", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = e.do(http.MethodGet, "/api/orders/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 1, id)
}

func TestUpdateOrder_MultipartInvoice(t *testing.T) {
	e := newEnv(t)
	e.seedOrder()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("payment_status", "Requested"))
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="invoice"; filename="inv.pdf"`)
	hdr.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/orders/1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	sent := e.notifier.all()
	require.Len(t, sent, 1)
	require.NotNil(t, sent[0].Attachment)
	assert.Equal(t, "inv.pdf", sent[0].Attachment.Filename)
	assert.Equal(t, []byte("%PDF-1.4"), sent[0].Attachment.Data)
}

func TestExportOrders(t *testing.T) {
	e := newEnv(t)
	e.seedOrder()

	w := e.do(http.MethodGet, "/api/orders/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestCancellationRoutes(t *testing.T) {
	e := newEnv(t)
	id := e.seedOrder()
	_, err := e.svc.RequestCancellation(context.Background(), id)
	require.NoError(t, err)

	w := e.do(http.MethodGet, "/api/cancellations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = e.do(http.MethodPost, "/api/cancellations/1/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/orders", nil)
	assert.Equal(t, float64(0), decode(t, w)["count"])

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/cancellations/1/reject", nil).Code)
}

func TestRazorpayCredentialRoutes(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/api/razorpay/credentials", map[string]string{"api_key": "rzp"}).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/api/razorpay/disconnect", nil).Code)

	w := e.do(http.MethodPost, "/api/razorpay/credentials", map[string]string{"api_key": "rzp_test_1234567890", "api_secret": "shh"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/razorpay/status", nil)
	body := decode(t, w)
	assert.Equal(t, true, body["connected"])
	assert.NotContains(t, body["api_key"], "567890")

	require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/razorpay/disconnect", nil).Code)
	body = decode(t, e.do(http.MethodGet, "/api/razorpay/status", nil))
	assert.Equal(t, false, body["enabled"])
}

func paidEvent(linkID, paymentID string) string {
	return `{"event":"payment_link.paid","payload":{` +
		`"payment_link":{"entity":{"id":"` + linkID + `","status":"paid","notes":{"seller_id":"` + seller + `","order_id":"1"}}},` +
		`"payment":{"entity":{"id":"` + paymentID + `","amount":24100,"status":"captured"}}}}`
}

func (e *env) webhook(body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/razorpay/webhook", strings.NewReader(body))
	if signature != "" {
		req.Header.Set(payments.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func TestRazorpayWebhook(t *testing.T) {
	e := newEnv(t)
	e.seedOrder()
	require.NoError(t, e.svc.Store.UpdateSeller(context.Background(), seller, func(s *orders.Seller) error {
		s.Orders[0].PaymentLinkID = "plink_1"
		s.Orders[0].PaymentStatus = orders.PaymentRequested
		return nil
	}))
	body := paidEvent("plink_1", "pay_1")

	assert.Equal(t, http.StatusBadRequest, e.webhook(body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.webhook(body, "deadbeef").Code)

	w := e.webhook(body, payments.Sign([]byte(body), "global-secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "success", decode(t, w)["status"])

	o, err := e.svc.Order(context.Background(), seller, 1)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentCompleted, o.PaymentStatus)
	assert.Equal(t, "pay_1", o.RazorpayPaymentID)
	require.Len(t, e.notifier.all(), 1)

	// replay
	w = e.webhook(body, payments.Sign([]byte(body), "global-secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", decode(t, w)["status"])
	assert.Len(t, e.notifier.all(), 1)

	other := `{"event":"payment.captured","payload":{}}`
	w = e.webhook(other, "sig")
	assert.Equal(t, "ignored", decode(t, w)["status"])
}

func TestRazorpayWebhook_SellerSecretWins(t *testing.T) {
	e := newEnv(t)
	e.seedOrder()
	require.NoError(t, e.svc.SaveRazorpayCredentials(context.Background(), seller, orders.RazorpayCredentials{
		APIKey: "rzp_test", APISecret: "shh", WebhookSecret: "seller-secret",
	}))
	body := paidEvent("plink_missing", "pay_2")

	assert.Equal(t, http.StatusUnauthorized, e.webhook(body, payments.Sign([]byte(body), "global-secret")).Code)

	w := e.webhook(body, payments.Sign([]byte(body), "seller-secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", decode(t, w)["status"])
}

func TestWhatsAppWebhook(t *testing.T) {
	e := newEnv(t)
	e.token = ""

	w := e.do(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())

	w = e.do(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	payload := `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{` +
		`"contacts":[{"wa_id":"` + buyer + `","profile":{"name":"Ravi"}}],` +
		`"messages":[{"id":"wamid.1","from":"` + buyer + `","timestamp":"1710408600","type":"text","text":{"body":"show me tea"}}]}}]}]}`

	w = e.do(http.MethodPost, "/webhook", payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["accepted"])

	// duplicate delivery from Meta
	w = e.do(http.MethodPost, "/webhook", payload)
	assert.Equal(t, float64(0), decode(t, w)["accepted"])

	require.Len(t, e.inbound.msgs, 1)
	assert.Equal(t, "show me tea", e.inbound.msgs[0].Text)
	assert.Equal(t, seller, e.inbound.msgs[0].SellerID)
	assert.Equal(t, "Ravi", e.inbound.msgs[0].Name)

	hist, err := (&redisx.ConversationLog{RDB: e.rdb}).Recent(context.Background(), seller, buyer, 10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "user", hist[0].Role)
}
