package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type PlaceOrderInput struct {
	SellerID        string
	BuyerPhone      string
	DeliveryAddress string
	DeliveryLat     float64
	DeliveryLng     float64
}

type Confirmation struct {
	OrderID         int             `json:"order_id"`
	Items           string          `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DeliveryAddress string          `json:"delivery_address"`
	Message         string          `json:"message"`
}

func validCoordinates(lat, lng float64) error {
	if err := validCoordinate("delivery_lat", lat, 90); err != nil {
		return err
	}
	return validCoordinate("delivery_lng", lng, 180)
}

// validCoordinate rejects NaN and infinities as well; both compare false
// against any bound.
func validCoordinate(field string, v, limit float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid("%s is not a number", field)
	}
	if v < -limit || v > limit {
		return invalid("%s out of range", field)
	}
	return nil
}

// PlaceOrder turns the buyer's cart into an order on the seller's ledger,
// mirrors it into the buyer's history and empties the cart, all in one
// store transaction.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (Confirmation, error) {
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return Confirmation{}, invalid("delivery_address is required")
	}
	if err := validCoordinates(in.DeliveryLat, in.DeliveryLng); err != nil {
		return Confirmation{}, err
	}

	var placed Order
	err := s.Store.UpdateSellerAndBuyer(ctx, in.SellerID, in.BuyerPhone, func(sel *Seller, b *Buyer) error {
		if !sel.Exists {
			return ErrSellerNotFound
		}
		if len(b.Cart) == 0 {
			return ErrEmptyCart
		}
		placed = Order{
			OrderID:         sel.nextOrderID(),
			SellerID:        in.SellerID,
			BuyerName:       b.Name,
			BuyerPhone:      b.PhoneNumber,
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			DeliveryLat:     in.DeliveryLat,
			DeliveryLng:     in.DeliveryLng,
			PaymentStatus:   PaymentPending,
			OrderStatus:     OrderReceived,
			CreatedAt:       NewTimestamp(s.now()),
			Items:           append([]CartItem(nil), b.Cart...),
			TotalAmount:     cartTotal(b.Cart),
		}
		sel.Orders = append(sel.Orders, placed)

		mirror := placed
		mirror.Items = append([]CartItem(nil), placed.Items...)
		b.Orders = append(b.Orders, mirror)
		b.Cart = nil
		return nil
	})
	if err != nil {
		return Confirmation{}, err
	}

	s.emit(ctx, EventOrderPlaced, in.SellerID, placed.OrderID, OrderPlacedPayload{Order: placed})
	return Confirmation{
		OrderID:         placed.OrderID,
		Items:           itemsSummary(placed.Items),
		TotalAmount:     placed.TotalAmount,
		DeliveryAddress: placed.DeliveryAddress,
		Message:         fmt.Sprintf("Order placed successfully! Order ID: %d. Total: ₹%s", placed.OrderID, placed.TotalAmount.StringFixed(2)),
	}, nil
}

// OrderHistory renders the buyer's order history for chat. Buyers without a
// profile or without orders get a friendly message, not an error.
func (s *Service) OrderHistory(ctx context.Context, phone string) (string, error) {
	b, err := s.Store.Buyer(ctx, phone)
	if errors.Is(err, ErrProfileNotFound) {
		return "No orders found for this number. Would you like to place your first order?", nil
	}
	if err != nil {
		return "", err
	}
	return renderHistory(b), nil
}

// BuyerOrders returns the raw history snapshots.
func (s *Service) BuyerOrders(ctx context.Context, phone string) ([]Order, error) {
	b, err := s.Store.Buyer(ctx, phone)
	if err != nil {
		return nil, err
	}
	return b.Orders, nil
}

func (s *Service) Order(ctx context.Context, sellerID string, orderID int) (Order, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return Order{}, err
	}
	i := sel.orderIndex(orderID)
	if i < 0 {
		return Order{}, ErrOrderNotFound
	}
	return sel.Orders[i], nil
}

// ListOrders returns the seller's orders newest first, optionally filtered
// by order status.
func (s *Service) ListOrders(ctx context.Context, sellerID string, status OrderStatus) ([]Order, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(sel.Orders))
	for _, o := range sel.Orders {
		if status == "" || o.OrderStatus == status {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt.Time) {
			return out[i].CreatedAt.After(out[j].CreatedAt.Time)
		}
		return out[i].OrderID > out[j].OrderID
	})
	return out, nil
}
