package orders

import (
	"context"

	"github.com/shopspring/decimal"
)

type CartView struct {
	Empty     bool            `json:"empty"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func cartView(cart []CartItem) CartView {
	v := CartView{Items: append([]CartItem{}, cart...), Total: cartTotal(cart)}
	for _, it := range cart {
		v.ItemCount += it.Quantity
	}
	v.Empty = len(cart) == 0
	return v
}

func cartTotal(cart []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range cart {
		total = total.Add(it.Subtotal)
	}
	return total
}

func lineSubtotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// mergeLine adds qty to the product's line, creating it at the product's
// current price when absent. An existing line keeps its unit price.
func mergeLine(cart []CartItem, p Product, qty int) []CartItem {
	for i := range cart {
		if cart[i].ProductID == p.ID {
			cart[i].Quantity += qty
			cart[i].Subtotal = lineSubtotal(cart[i].UnitPrice, cart[i].Quantity)
			return cart
		}
	}
	return append(cart, CartItem{
		ProductID:   p.ID,
		ProductName: p.Title,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Subtotal:    lineSubtotal(p.Price, qty),
	})
}

// setLine overwrites a line's quantity; zero removes it.
func setLine(cart []CartItem, productID, qty int) ([]CartItem, error) {
	for i := range cart {
		if cart[i].ProductID != productID {
			continue
		}
		if qty == 0 {
			return append(cart[:i], cart[i+1:]...), nil
		}
		cart[i].Quantity = qty
		cart[i].Subtotal = lineSubtotal(cart[i].UnitPrice, qty)
		return cart, nil
	}
	return cart, ErrCartItemNotFound
}

// AddToCart looks the product up in the seller's catalog, merges it into
// the buyer's cart and returns the updated cart.
func (s *Service) AddToCart(ctx context.Context, sellerID, phone string, productID, qty int) (CartView, error) {
	if qty <= 0 {
		return CartView{}, invalid("quantity must be positive")
	}
	p, err := s.GetProduct(ctx, sellerID, productID)
	if err != nil {
		return CartView{}, err
	}
	var v CartView
	err = s.Store.UpdateBuyer(ctx, phone, func(b *Buyer) error {
		b.Cart = mergeLine(b.Cart, p, qty)
		v = cartView(b.Cart)
		return nil
	})
	if err != nil {
		return CartView{}, err
	}
	return v, nil
}

func (s *Service) ViewCart(ctx context.Context, phone string) (CartView, error) {
	b, err := s.Store.Buyer(ctx, phone)
	if err != nil {
		return CartView{}, err
	}
	return cartView(b.Cart), nil
}

func (s *Service) ModifyCartItem(ctx context.Context, phone string, productID, qty int) (CartView, error) {
	if qty < 0 {
		return CartView{}, invalid("quantity must not be negative")
	}
	var v CartView
	err := s.Store.UpdateBuyer(ctx, phone, func(b *Buyer) error {
		cart, err := setLine(b.Cart, productID, qty)
		if err != nil {
			return err
		}
		b.Cart = cart
		v = cartView(cart)
		return nil
	})
	return v, err
}

func (s *Service) ClearCart(ctx context.Context, phone string) error {
	return s.Store.UpdateBuyer(ctx, phone, func(b *Buyer) error {
		b.Cart = nil
		return nil
	})
}
