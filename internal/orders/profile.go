package orders

import (
	"context"
	"errors"
	"strings"
)

type ProfileStatus struct {
	Exists      bool      `json:"exists"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name,omitempty"`
	CreatedAt   Timestamp `json:"created_at,omitempty"`
	TotalOrders int       `json:"total_orders"`
}

func (s *Service) CheckBuyerProfile(ctx context.Context, phone string) (ProfileStatus, error) {
	b, err := s.Store.Buyer(ctx, phone)
	if errors.Is(err, ErrProfileNotFound) {
		return ProfileStatus{PhoneNumber: phone}, nil
	}
	if err != nil {
		return ProfileStatus{}, err
	}
	return ProfileStatus{
		Exists:      true,
		PhoneNumber: b.PhoneNumber,
		Name:        b.Name,
		CreatedAt:   b.CreatedAt,
		TotalOrders: len(b.Orders),
	}, nil
}

func (s *Service) CreateBuyerProfile(ctx context.Context, phone, name string) (*Buyer, error) {
	phone, name = strings.TrimSpace(phone), strings.TrimSpace(name)
	if phone == "" || name == "" {
		return nil, invalid("phone and name are required")
	}
	b := &Buyer{PhoneNumber: phone, Name: name, CreatedAt: NewTimestamp(s.now())}
	if err := s.Store.CreateBuyer(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) UpdateBuyerName(ctx context.Context, phone, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("name is required")
	}
	return s.Store.UpdateBuyer(ctx, phone, func(b *Buyer) error {
		b.Name = name
		return nil
	})
}
