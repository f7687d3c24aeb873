package orders

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const scanConcurrency = 8

type CancellationResult struct {
	OrderID          int    `json:"order_id"`
	SellerID         string `json:"seller_id"`
	AlreadyRequested bool   `json:"already_requested"`
	Message          string `json:"message"`
}

// findSeller returns the first seller, in id order, for which match is true.
// Sellers are loaded concurrently.
func (s *Service) findSeller(ctx context.Context, match func(*Seller) bool) (string, error) {
	ids, err := s.Store.SellerIDs(ctx)
	if err != nil {
		return "", err
	}
	hits := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			sel, err := s.Store.Seller(gctx, id)
			if err != nil {
				return err
			}
			hits[i] = match(sel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	for i, hit := range hits {
		if hit {
			return ids[i], nil
		}
	}
	return "", ErrOrderNotFound
}

// RequestCancellation is the buyer-side request. The caller does not know
// the seller, so every seller's ledger is searched for the id. Requesting
// twice is not an error.
func (s *Service) RequestCancellation(ctx context.Context, orderID int) (CancellationResult, error) {
	sellerID, err := s.findSeller(ctx, func(sel *Seller) bool { return sel.orderIndex(orderID) >= 0 })
	if err != nil {
		return CancellationResult{}, err
	}
	return s.RequestCancellationFor(ctx, sellerID, orderID)
}

// RequestCancellationFor records the request against a known seller.
func (s *Service) RequestCancellationFor(ctx context.Context, sellerID string, orderID int) (CancellationResult, error) {
	res := CancellationResult{OrderID: orderID, SellerID: sellerID}
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		if sel.orderIndex(orderID) < 0 {
			return ErrOrderNotFound
		}
		res.AlreadyRequested = sel.cancellationPending(orderID)
		if !res.AlreadyRequested {
			sel.Cancellation = append(sel.Cancellation, orderID)
		}
		return nil
	})
	if err != nil {
		return CancellationResult{}, err
	}
	if res.AlreadyRequested {
		res.Message = fmt.Sprintf("Cancellation for order #%d was already requested. The seller will review it shortly.", orderID)
		return res, nil
	}
	res.Message = fmt.Sprintf("Cancellation requested for order #%d. The seller will review it shortly.", orderID)
	s.emit(ctx, EventCancellationRequested, sellerID, orderID, CancellationPayload{OrderID: orderID, Outcome: "requested"})
	return res, nil
}

// ListCancellations returns the orders with a pending request, in request order.
func (s *Service) ListCancellations(ctx context.Context, sellerID string) ([]Order, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(sel.Cancellation))
	for _, id := range sel.Cancellation {
		if i := sel.orderIndex(id); i >= 0 {
			out = append(out, sel.Orders[i])
		}
	}
	return out, nil
}

// ApproveCancellation deletes the order from the seller's ledger and clears
// the request. The buyer's history snapshot is not touched.
func (s *Service) ApproveCancellation(ctx context.Context, sellerID string, orderID int) (Order, error) {
	var removed Order
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		i := sel.orderIndex(orderID)
		if i < 0 {
			return ErrOrderNotFound
		}
		removed = sel.Orders[i]
		sel.Orders = append(sel.Orders[:i], sel.Orders[i+1:]...)
		sel.dropCancellation(orderID)
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, EventCancellationApproved, sellerID, orderID, CancellationPayload{OrderID: orderID, Outcome: "approved"})
	return removed, nil
}

// RejectCancellation clears the request and keeps the order.
func (s *Service) RejectCancellation(ctx context.Context, sellerID string, orderID int) (Order, error) {
	var kept Order
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		i := sel.orderIndex(orderID)
		if i < 0 {
			return ErrOrderNotFound
		}
		kept = sel.Orders[i]
		sel.dropCancellation(orderID)
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.emit(ctx, EventCancellationRejected, sellerID, orderID, CancellationPayload{OrderID: orderID, Outcome: "rejected"})
	return kept, nil
}
