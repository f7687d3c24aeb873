package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) all() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.sent...)
}

type fakeLinker struct {
	calls []PaymentLinkRequest
	link  PaymentLink
	err   error
}

func (f *fakeLinker) CreatePaymentLink(_ context.Context, _ RazorpayCredentials, req PaymentLinkRequest) (PaymentLink, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return PaymentLink{}, f.err
	}
	return f.link, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc      *Service
	store    *MemStore
	notifier *fakeNotifier
	linker   *fakeLinker
	sink     *recordingSink
}

const (
	testSeller = "seller-1"
	testPhone  = "919800000001"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    NewMemStore(),
		notifier: &fakeNotifier{},
		linker:   &fakeLinker{link: PaymentLink{ID: "plink_123", URL: "https://rzp.io/i/abc"}},
		sink:     &recordingSink{},
	}
	f.svc = &Service{
		Store:    f.store,
		Payments: f.linker,
		Notifier: f.notifier,
		Events:   f.sink,
		Now:      func() time.Time { return fixedNow },
	}
	ctx := context.Background()
	require.NoError(t, f.store.UpdateSeller(ctx, testSeller, func(s *Seller) error {
		s.CompanyInfo = CompanyInfo{CompanyName: "Chai Co"}
		s.Products = []Product{
			{ID: 1, Title: "Masala Tea", Price: decimal.RequireFromString("120.50"), StockQuantity: 10},
			{ID: 2, Title: "Ginger Cookies", Price: decimal.RequireFromString("80"), StockQuantity: 5},
		}
		return nil
	}))
	_, err := f.svc.CreateBuyerProfile(ctx, testPhone, "Asha")
	require.NoError(t, err)
	return f
}

// placeOrder fills the cart and places an order, returning its id.
func (f *fixture) placeOrder(t *testing.T, lines map[int]int) int {
	t.Helper()
	ctx := context.Background()
	for pid, qty := range lines {
		_, err := f.svc.AddToCart(ctx, testSeller, testPhone, pid, qty)
		require.NoError(t, err)
	}
	conf, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		SellerID:        testSeller,
		BuyerPhone:      testPhone,
		DeliveryAddress: "12 MG Road, Pune",
		DeliveryLat:     18.52,
		DeliveryLng:     73.85,
	})
	require.NoError(t, err)
	return conf.OrderID
}

func (f *fixture) order(t *testing.T, id int) Order {
	t.Helper()
	o, err := f.svc.Order(context.Background(), testSeller, id)
	require.NoError(t, err)
	return o
}

var errBoom = errors.New("boom")

// failingStore runs mutators against the wrapped MemStore, then fails the
// write. MemStore writes nothing when the closure errors.
type failingStore struct{ *MemStore }

var errDiskFull = errors.New("disk full")

func (s failingStore) UpdateSeller(ctx context.Context, sellerID string, fn func(*Seller) error) error {
	return s.MemStore.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		if err := fn(sel); err != nil {
			return err
		}
		return StorageError("save seller", errDiskFull)
	})
}

func (s failingStore) UpdateBuyer(ctx context.Context, phone string, fn func(*Buyer) error) error {
	return s.MemStore.UpdateBuyer(ctx, phone, func(b *Buyer) error {
		if err := fn(b); err != nil {
			return err
		}
		return StorageError("save buyer", errDiskFull)
	})
}

func (s failingStore) UpdateSellerAndBuyer(ctx context.Context, sellerID, phone string, fn func(*Seller, *Buyer) error) error {
	return s.MemStore.UpdateSellerAndBuyer(ctx, sellerID, phone, func(sel *Seller, b *Buyer) error {
		if err := fn(sel, b); err != nil {
			return err
		}
		return StorageError("save", errDiskFull)
	})
}

func TestStorageFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeOrder(t, map[int]int{1: 1})
	eventsBefore := len(f.sink.types())
	f.svc.Store = failingStore{f.store}

	_, err := f.svc.AddToCart(ctx, testSeller, testPhone, 2, 1)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, errDiskFull)

	_, err = f.svc.UpdateOrderStatus(ctx, testSeller, id, OrderUpdate{
		OrderStatus:   ptr(OrderToDeliver),
		PaymentStatus: ptr(PaymentRequested),
	})
	assert.ErrorIs(t, err, ErrStorage)
	assert.Empty(t, f.notifier.all(), "nothing sent when the write failed")
	assert.Empty(t, f.linker.calls, "no payment link for an unsaved update")
	assert.Len(t, f.sink.types(), eventsBefore)

	_, err = f.svc.PlaceOrder(ctx, PlaceOrderInput{SellerID: testSeller, BuyerPhone: testPhone, DeliveryAddress: "12 MG Road"})
	assert.ErrorIs(t, err, ErrEmptyCart, "mutator errors pass through untouched")

	o := f.order(t, id)
	assert.Equal(t, OrderReceived, o.OrderStatus)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	v, err := f.svc.ViewCart(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, v.Empty)
}
