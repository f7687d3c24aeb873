package orders

import (
	"context"
	"sort"
	"sync"
)

// Store persists seller and buyer documents. Every Update* call is a
// read-modify-write: the record is locked for the duration of fn and nothing
// is written when fn returns an error. Errors from fn are returned as-is;
// backend failures wrap ErrStorage.
type Store interface {
	// Seller returns an empty record for an unknown id.
	Seller(ctx context.Context, sellerID string) (*Seller, error)
	SellerIDs(ctx context.Context) ([]string, error)
	UpdateSeller(ctx context.Context, sellerID string, fn func(*Seller) error) error

	// Buyer returns ErrProfileNotFound for an unknown phone.
	Buyer(ctx context.Context, phone string) (*Buyer, error)
	// CreateBuyer returns ErrProfileExists when the phone is taken.
	CreateBuyer(ctx context.Context, b *Buyer) error
	UpdateBuyer(ctx context.Context, phone string, fn func(*Buyer) error) error

	// UpdateSellerAndBuyer locks the seller first, then the buyer.
	UpdateSellerAndBuyer(ctx context.Context, sellerID, phone string, fn func(*Seller, *Buyer) error) error
}

// MemStore keeps encoded documents in memory. Records are decoded fresh for
// every call, so callers never share state with the store.
type MemStore struct {
	mu      sync.Mutex
	sellers map[string][]byte
	buyers  map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{sellers: map[string][]byte{}, buyers: map[string][]byte{}}
}

func (m *MemStore) Seller(_ context.Context, sellerID string) (*Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DecodeSeller(sellerID, m.sellers[sellerID])
}

func (m *MemStore) SellerIDs(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sellers))
	for id := range m.sellers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemStore) UpdateSeller(_ context.Context, sellerID string, fn func(*Seller) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := DecodeSeller(sellerID, m.sellers[sellerID])
	if err != nil {
		return StorageError("decode seller", err)
	}
	if err := fn(s); err != nil {
		return err
	}
	return m.putSeller(s)
}

func (m *MemStore) Buyer(_ context.Context, phone string) (*Buyer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DecodeBuyer(phone, m.buyers[phone])
}

func (m *MemStore) CreateBuyer(_ context.Context, b *Buyer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buyers[b.PhoneNumber]; ok {
		return ErrProfileExists
	}
	return m.putBuyer(b)
}

func (m *MemStore) UpdateBuyer(_ context.Context, phone string, fn func(*Buyer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := DecodeBuyer(phone, m.buyers[phone])
	if err != nil {
		return err
	}
	if err := fn(b); err != nil {
		return err
	}
	return m.putBuyer(b)
}

func (m *MemStore) UpdateSellerAndBuyer(_ context.Context, sellerID, phone string, fn func(*Seller, *Buyer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := DecodeSeller(sellerID, m.sellers[sellerID])
	if err != nil {
		return StorageError("decode seller", err)
	}
	b, err := DecodeBuyer(phone, m.buyers[phone])
	if err != nil {
		return err
	}
	if err := fn(s, b); err != nil {
		return err
	}
	// encode both before writing either
	sb, err := EncodeSeller(s)
	if err != nil {
		return StorageError("encode seller", err)
	}
	bb, err := EncodeBuyer(b)
	if err != nil {
		return StorageError("encode buyer", err)
	}
	m.sellers[sellerID] = sb
	m.buyers[phone] = bb
	return nil
}

func (m *MemStore) putSeller(s *Seller) error {
	b, err := EncodeSeller(s)
	if err != nil {
		return StorageError("encode seller", err)
	}
	m.sellers[s.ID] = b
	return nil
}

func (m *MemStore) putBuyer(b *Buyer) error {
	raw, err := EncodeBuyer(b)
	if err != nil {
		return StorageError("encode buyer", err)
	}
	m.buyers[b.PhoneNumber] = raw
	return nil
}
