package firebasedb

import (
	"context"
	"errors"
	"sort"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

const (
	sellersPath = "sellers"
	buyersPath  = "buyers"

	lockBuyer = "buyer"
)

// Store keeps each record as one node and mutates it with a Realtime
// Database transaction. The database has no multi-path transactions, so
// UpdateSellerAndBuyer commits the seller first and then writes the buyer,
// with every buyer writer holding the buyer lock.
type Store struct {
	Tree  Tree
	Locks Locker
}

var _ orders.Store = (*Store)(nil)

func New(tree Tree, locks Locker) *Store {
	if locks == nil {
		locks = NewLocalLocker()
	}
	return &Store{Tree: tree, Locks: locks}
}

func sellerPath(id string) string   { return sellersPath + "/" + SanitizeKey(id) }
func buyerPath(phone string) string { return buyersPath + "/" + SanitizeKey(phone) }

func (s *Store) Seller(ctx context.Context, sellerID string) (*orders.Seller, error) {
	raw, err := s.Tree.Get(ctx, sellerPath(sellerID))
	if err != nil {
		return nil, orders.StorageError("load seller", err)
	}
	sel, err := orders.DecodeSeller(sellerID, raw)
	if err != nil {
		return nil, orders.StorageError("decode seller", err)
	}
	return sel, nil
}

func (s *Store) SellerIDs(ctx context.Context) ([]string, error) {
	keys, err := s.Tree.Keys(ctx, sellersPath)
	if err != nil {
		return nil, orders.StorageError("list sellers", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = DesanitizeKey(k)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) UpdateSeller(ctx context.Context, sellerID string, fn func(*orders.Seller) error) error {
	return s.txSeller(ctx, sellerID, fn)
}

func (s *Store) txSeller(ctx context.Context, sellerID string, fn func(*orders.Seller) error) error {
	var fnErr error
	err := s.Tree.Transaction(ctx, sellerPath(sellerID), func(cur []byte) ([]byte, error) {
		sel, err := orders.DecodeSeller(sellerID, cur)
		if err != nil {
			return nil, orders.StorageError("decode seller", err)
		}
		if fnErr = fn(sel); fnErr != nil {
			return nil, fnErr
		}
		doc, err := orders.EncodeSeller(sel)
		if err != nil {
			return nil, orders.StorageError("encode seller", err)
		}
		return doc, nil
	})
	return txResult("update seller", fnErr, err)
}

func (s *Store) Buyer(ctx context.Context, phone string) (*orders.Buyer, error) {
	raw, err := s.Tree.Get(ctx, buyerPath(phone))
	if err != nil {
		return nil, orders.StorageError("load buyer", err)
	}
	return decodeBuyer(phone, raw)
}

func (s *Store) CreateBuyer(ctx context.Context, b *orders.Buyer) error {
	release, err := s.Locks.Acquire(ctx, lockBuyer, b.PhoneNumber)
	if err != nil {
		return orders.StorageError("lock buyer", err)
	}
	defer release()

	var fnErr error
	err = s.Tree.Transaction(ctx, buyerPath(b.PhoneNumber), func(cur []byte) ([]byte, error) {
		if !isNull(cur) {
			fnErr = orders.ErrProfileExists
			return nil, fnErr
		}
		doc, err := orders.EncodeBuyer(b)
		if err != nil {
			return nil, orders.StorageError("encode buyer", err)
		}
		return doc, nil
	})
	return txResult("create buyer", fnErr, err)
}

func (s *Store) UpdateBuyer(ctx context.Context, phone string, fn func(*orders.Buyer) error) error {
	release, err := s.Locks.Acquire(ctx, lockBuyer, phone)
	if err != nil {
		return orders.StorageError("lock buyer", err)
	}
	defer release()

	var fnErr error
	err = s.Tree.Transaction(ctx, buyerPath(phone), func(cur []byte) ([]byte, error) {
		b, err := decodeBuyer(phone, cur)
		if err != nil {
			fnErr = err
			return nil, err
		}
		if fnErr = fn(b); fnErr != nil {
			return nil, fnErr
		}
		doc, err := orders.EncodeBuyer(b)
		if err != nil {
			return nil, orders.StorageError("encode buyer", err)
		}
		return doc, nil
	})
	return txResult("update buyer", fnErr, err)
}

func (s *Store) UpdateSellerAndBuyer(ctx context.Context, sellerID, phone string, fn func(*orders.Seller, *orders.Buyer) error) error {
	release, err := s.Locks.Acquire(ctx, lockBuyer, phone)
	if err != nil {
		return orders.StorageError("lock buyer", err)
	}
	defer release()

	raw, err := s.Tree.Get(ctx, buyerPath(phone))
	if err != nil {
		return orders.StorageError("load buyer", err)
	}
	if _, err := decodeBuyer(phone, raw); err != nil {
		return err
	}

	// the seller transaction may run fn more than once; each attempt starts
	// from the buyer as read under the lock
	var buyer *orders.Buyer
	err = s.txSeller(ctx, sellerID, func(sel *orders.Seller) error {
		b, err := decodeBuyer(phone, raw)
		if err != nil {
			return err
		}
		if err := fn(sel, b); err != nil {
			return err
		}
		buyer = b
		return nil
	})
	if err != nil {
		return err
	}

	doc, err := orders.EncodeBuyer(buyer)
	if err != nil {
		return orders.StorageError("encode buyer", err)
	}
	if err := s.Tree.Set(ctx, buyerPath(phone), doc); err != nil {
		return orders.StorageError("save buyer", err)
	}
	return nil
}

func decodeBuyer(phone string, raw []byte) (*orders.Buyer, error) {
	b, err := orders.DecodeBuyer(phone, raw)
	if err != nil && !errors.Is(err, orders.ErrProfileNotFound) {
		return nil, orders.StorageError("decode buyer", err)
	}
	return b, err
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// txResult returns the mutator's error as is; anything else the
// transaction reports is a storage failure.
func txResult(op string, fnErr, err error) error {
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		if errors.Is(err, orders.ErrStorage) {
			return err
		}
		return orders.StorageError(op, err)
	}
	return nil
}
