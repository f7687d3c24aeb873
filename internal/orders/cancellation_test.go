package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestCancellation_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeOrder(t, map[int]int{1: 1})

	res, err := f.svc.RequestCancellation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testSeller, res.SellerID)
	assert.False(t, res.AlreadyRequested)

	res, err = f.svc.RequestCancellation(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.AlreadyRequested)

	sel, err := f.store.Seller(ctx, testSeller)
	require.NoError(t, err)
	assert.Equal(t, []int{id}, sel.Cancellation)

	pending, err := f.svc.ListCancellations(ctx, testSeller)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].OrderID)
}

func TestRequestCancellation_ScansSellers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// an earlier seller without that order id
	require.NoError(t, f.store.UpdateSeller(ctx, "a-empty-seller", func(s *Seller) error {
		s.CompanyInfo.CompanyName = "Nothing here"
		return nil
	}))
	id := f.placeOrder(t, map[int]int{1: 1})

	res, err := f.svc.RequestCancellation(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testSeller, res.SellerID)

	_, err = f.svc.RequestCancellation(ctx, 404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestApproveCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeOrder(t, map[int]int{1: 1})
	_, err := f.svc.RequestCancellation(ctx, id)
	require.NoError(t, err)

	removed, err := f.svc.ApproveCancellation(ctx, testSeller, id)
	require.NoError(t, err)
	assert.Equal(t, id, removed.OrderID)

	_, err = f.svc.Order(ctx, testSeller, id)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	sel, err := f.store.Seller(ctx, testSeller)
	require.NoError(t, err)
	assert.Empty(t, sel.Cancellation)

	_, err = f.svc.ApproveCancellation(ctx, testSeller, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, f.sink.types(), EventCancellationApproved)
}

func TestRejectCancellation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.placeOrder(t, map[int]int{1: 1})
	_, err := f.svc.RequestCancellation(ctx, id)
	require.NoError(t, err)

	kept, err := f.svc.RejectCancellation(ctx, testSeller, id)
	require.NoError(t, err)
	assert.Equal(t, id, kept.OrderID)

	o := f.order(t, id)
	assert.Equal(t, OrderReceived, o.OrderStatus)
	sel, err := f.store.Seller(ctx, testSeller)
	require.NoError(t, err)
	assert.Empty(t, sel.Cancellation)

	_, err = f.svc.RejectCancellation(ctx, testSeller, 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
