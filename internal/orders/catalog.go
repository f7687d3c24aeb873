package orders

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

type ProductSummary struct {
	ProductID   int             `json:"product_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type PriceQuote struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

type ProductInput struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
}

// ProductPatch carries a partial update; nil fields are left alone.
type ProductPatch struct {
	Title         *string          `json:"title"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Category      *string          `json:"category"`
	StockQuantity *int             `json:"stock_quantity"`
	ImageURL      *string          `json:"image_url"`
}

// knownSeller loads a seller for the buyer side. Sellers are created from
// the dashboard only, so an id that was never written is ErrSellerNotFound.
func (s *Service) knownSeller(ctx context.Context, sellerID string) (*Seller, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !sel.Exists {
		return nil, ErrSellerNotFound
	}
	return sel, nil
}

// BrowseProducts lists the catalog in stored order.
func (s *Service) BrowseProducts(ctx context.Context, sellerID string) ([]ProductSummary, error) {
	sel, err := s.knownSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(sel.Products))
	for _, p := range sel.Products {
		out = append(out, ProductSummary{ProductID: p.ID, Title: p.Title, Description: p.Description, Price: p.Price})
	}
	return out, nil
}

func (s *Service) GetProduct(ctx context.Context, sellerID string, productID int) (Product, error) {
	sel, err := s.knownSeller(ctx, sellerID)
	if err != nil {
		return Product{}, err
	}
	p, ok := sel.product(productID)
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *Service) CalculatePrice(ctx context.Context, sellerID string, productID, qty int) (PriceQuote, error) {
	if qty <= 0 {
		return PriceQuote{}, invalid("quantity must be positive")
	}
	p, err := s.GetProduct(ctx, sellerID, productID)
	if err != nil {
		return PriceQuote{}, err
	}
	return PriceQuote{
		ProductID:   p.ID,
		ProductName: p.Title,
		Quantity:    qty,
		UnitPrice:   p.Price,
		Total:       p.Price.Mul(decimal.NewFromInt(int64(qty))),
	}, nil
}

// ListProducts returns the catalog newest first, for the dashboard.
func (s *Service) ListProducts(ctx context.Context, sellerID string) ([]Product, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := append([]Product(nil), sel.Products...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	return out, nil
}

func validateProduct(title string, price decimal.Decimal, stock int) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title is required")
	}
	if price.IsNegative() {
		return invalid("price must not be negative")
	}
	if stock < 0 {
		return invalid("stock_quantity must not be negative")
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, sellerID string, in ProductInput) (Product, error) {
	if err := validateProduct(in.Title, in.Price, in.StockQuantity); err != nil {
		return Product{}, err
	}
	var created Product
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		created = Product{
			ID:            sel.nextProductID(),
			Title:         strings.TrimSpace(in.Title),
			Description:   in.Description,
			Price:         in.Price,
			Category:      in.Category,
			StockQuantity: in.StockQuantity,
			ImageURL:      in.ImageURL,
			CreatedAt:     NewTimestamp(s.now()),
		}
		sel.Products = append(sel.Products, created)
		return nil
	})
	return created, err
}

func (s *Service) UpdateProduct(ctx context.Context, sellerID string, productID int, patch ProductPatch) (Product, error) {
	var updated Product
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		for i := range sel.Products {
			p := &sel.Products[i]
			if p.ID != productID {
				continue
			}
			next := *p
			if patch.Title != nil {
				next.Title = strings.TrimSpace(*patch.Title)
			}
			if patch.Description != nil {
				next.Description = *patch.Description
			}
			if patch.Price != nil {
				next.Price = *patch.Price
			}
			if patch.Category != nil {
				next.Category = *patch.Category
			}
			if patch.StockQuantity != nil {
				next.StockQuantity = *patch.StockQuantity
			}
			if patch.ImageURL != nil {
				next.ImageURL = *patch.ImageURL
			}
			if err := validateProduct(next.Title, next.Price, next.StockQuantity); err != nil {
				return err
			}
			*p = next
			updated = next
			return nil
		}
		return ErrProductNotFound
	})
	return updated, err
}

func (s *Service) DeleteProduct(ctx context.Context, sellerID string, productID int) error {
	return s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		for i, p := range sel.Products {
			if p.ID == productID {
				sel.Products = append(sel.Products[:i], sel.Products[i+1:]...)
				return nil
			}
		}
		return ErrProductNotFound
	})
}

// SellerData returns the whole seller document.
func (s *Service) SellerData(ctx context.Context, sellerID string) (*Seller, error) {
	return s.Store.Seller(ctx, sellerID)
}

// StoreInfo is the company profile as buyers see it.
func (s *Service) StoreInfo(ctx context.Context, sellerID string) (CompanyInfo, error) {
	sel, err := s.knownSeller(ctx, sellerID)
	if err != nil {
		return CompanyInfo{}, err
	}
	return sel.CompanyInfo, nil
}

// CompanyInfo is the dashboard read; a seller who has not onboarded gets
// an empty profile.
func (s *Service) CompanyInfo(ctx context.Context, sellerID string) (CompanyInfo, error) {
	sel, err := s.Store.Seller(ctx, sellerID)
	if err != nil {
		return CompanyInfo{}, err
	}
	return sel.CompanyInfo, nil
}

// UpdateCompanyInfo replaces the profile. The UPI id and picture are kept
// when the update leaves them blank; they have their own flows.
func (s *Service) UpdateCompanyInfo(ctx context.Context, sellerID string, info CompanyInfo) (CompanyInfo, error) {
	if strings.TrimSpace(info.CompanyName) == "" {
		return CompanyInfo{}, invalid("company_name is required")
	}
	var out CompanyInfo
	err := s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		if info.UPIID == "" {
			info.UPIID = sel.CompanyInfo.UPIID
		}
		if info.Picture == "" {
			info.Picture = sel.CompanyInfo.Picture
		}
		sel.CompanyInfo = info
		out = info
		return nil
	})
	return out, err
}

func (s *Service) UpdateUPI(ctx context.Context, sellerID, upiID string) error {
	upiID = strings.TrimSpace(upiID)
	if upiID == "" {
		return invalid("upi_id is required")
	}
	return s.Store.UpdateSeller(ctx, sellerID, func(sel *Seller) error {
		sel.CompanyInfo.UPIID = upiID
		return nil
	})
}

// SellerProfile returns the stored company info and whether the seller is
// new. A new seller gets seed back without anything being saved; the record
// is written at onboarding.
func (s *Service) SellerProfile(ctx context.Context, sellerID string, seed CompanyInfo) (CompanyInfo, bool, error) {
	info, err := s.CompanyInfo(ctx, sellerID)
	if err != nil {
		return CompanyInfo{}, false, err
	}
	if info != (CompanyInfo{}) {
		return info, false, nil
	}
	return seed, true, nil
}

// Onboard stores the first company profile. The owner defaults to the
// company name and the country to India.
func (s *Service) Onboard(ctx context.Context, sellerID string, info CompanyInfo) (CompanyInfo, error) {
	if info.OwnerName == "" {
		info.OwnerName = info.CompanyName
	}
	if info.Country == "" {
		info.Country = "India"
	}
	return s.UpdateCompanyInfo(ctx, sellerID, info)
}
