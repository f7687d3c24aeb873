package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToCart_MergesAndKeepsUnitPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, testSeller, testPhone, 1, 2)
	require.NoError(t, err)

	// price change after the line exists must not reprice it
	newPrice := decimal.RequireFromString("999")
	_, err = f.svc.UpdateProduct(ctx, testSeller, 1, ProductPatch{Price: &newPrice})
	require.NoError(t, err)

	added, err := f.svc.AddToCart(ctx, testSeller, testPhone, 1, 3)
	require.NoError(t, err)
	require.Len(t, added.Items, 1)
	line := added.Items[0]
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "120.50", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "602.50", line.Subtotal.StringFixed(2))

	v, err := f.svc.ViewCart(ctx, testPhone)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.False(t, v.Empty)
	assert.Equal(t, 5, v.ItemCount)
	assert.Equal(t, "602.50", v.Total.StringFixed(2))
}

func TestAddToCart_ReturnsWholeCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, testSeller, testPhone, 1, 1)
	require.NoError(t, err)
	v, err := f.svc.AddToCart(ctx, testSeller, testPhone, 2, 1)
	require.NoError(t, err)

	require.Len(t, v.Items, 2)
	assert.Equal(t, 1, v.Items[0].ProductID)
	assert.Equal(t, 2, v.Items[1].ProductID)
	assert.Equal(t, 2, v.ItemCount)
	assert.Equal(t, "200.50", v.Total.StringFixed(2))
	assert.False(t, v.Empty)
}

func TestAddToCart_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, testSeller, testPhone, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddToCart(ctx, testSeller, testPhone, 1, -4)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.AddToCart(ctx, testSeller, testPhone, 42, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.AddToCart(ctx, testSeller, "910000000000", 1, 1)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	v, err := f.svc.ViewCart(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, v.Empty)
}

func TestModifyCartItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddToCart(ctx, testSeller, testPhone, 1, 1)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, testSeller, testPhone, 2, 1)
	require.NoError(t, err)

	v, err := f.svc.ModifyCartItem(ctx, testPhone, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, "440.50", v.Total.StringFixed(2))

	v, err = f.svc.ModifyCartItem(ctx, testPhone, 1, 0)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 2, v.Items[0].ProductID)

	_, err = f.svc.ModifyCartItem(ctx, testPhone, 1, 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)

	_, err = f.svc.ModifyCartItem(ctx, testPhone, 2, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClearCart_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.AddToCart(ctx, testSeller, testPhone, 1, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearCart(ctx, testPhone))
	require.NoError(t, f.svc.ClearCart(ctx, testPhone))

	v, err := f.svc.ViewCart(ctx, testPhone)
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Equal(t, 0, v.ItemCount)
}
