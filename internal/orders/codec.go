package orders

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Realtime Database and the JSONB columns both store money as numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		v, err := time.Parse(layout, s)
		if err == nil {
			t.Time = v
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// UnmarshalJSON reads the canonical shape plus the legacy variants: `id`
// instead of `order_id`, `amount` instead of `total_amount`, numeric seller
// ids, coordinates stored as strings, and single-item orders that carry
// `product_name`/`quantity` at the top level.
func (o *Order) UnmarshalJSON(b []byte) error {
	type canonical Order
	var raw struct {
		canonical
		SellerID    json.RawMessage  `json:"seller_id"`
		DeliveryLat json.RawMessage  `json:"delivery_lat"`
		DeliveryLng json.RawMessage  `json:"delivery_lng"`
		LegacyID    *int             `json:"id"`
		Amount      *decimal.Decimal `json:"amount"`
		ProductName string           `json:"product_name"`
		Quantity    int              `json:"quantity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*o = Order(raw.canonical)

	o.SellerID = flexString(raw.SellerID)
	o.DeliveryLat = flexFloat(raw.DeliveryLat)
	o.DeliveryLng = flexFloat(raw.DeliveryLng)
	if o.OrderID == 0 && raw.LegacyID != nil {
		o.OrderID = *raw.LegacyID
	}
	if o.TotalAmount.IsZero() && raw.Amount != nil {
		o.TotalAmount = *raw.Amount
	}
	if len(o.Items) == 0 && raw.ProductName != "" {
		qty := raw.Quantity
		if qty <= 0 {
			qty = 1
		}
		o.Items = []CartItem{{
			ProductName: raw.ProductName,
			Quantity:    qty,
			UnitPrice:   o.TotalAmount.Div(decimal.NewFromInt(int64(qty))),
			Subtotal:    o.TotalAmount,
		}}
	}
	return nil
}

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func flexString(b json.RawMessage) string {
	if isNull(b) {
		return ""
	}
	var s string
	if json.Unmarshal(b, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(b))
}

func flexFloat(b json.RawMessage) float64 {
	if isNull(b) {
		return 0
	}
	var f float64
	if json.Unmarshal(b, &f) == nil {
		return f
	}
	f, _ = strconv.ParseFloat(flexString(b), 64)
	return f
}

// EncodeSeller and the functions below are the document codec shared by
// every Store backend.
func EncodeSeller(s *Seller) ([]byte, error) { return json.Marshal(s) }

// DecodeSeller decodes a stored seller document. A missing document, or the
// empty object a store writes to hold a row lock, is a seller that does not
// exist yet.
func DecodeSeller(id string, b []byte) (*Seller, error) {
	s := &Seller{}
	if !isNull(b) {
		if err := json.Unmarshal(b, s); err != nil {
			return nil, err
		}
		s.Exists = string(bytes.TrimSpace(b)) != "{}"
	}
	s.ID = id
	return s, nil
}

func EncodeBuyer(b *Buyer) ([]byte, error) { return json.Marshal(b) }

func DecodeBuyer(phone string, b []byte) (*Buyer, error) {
	if isNull(b) {
		return nil, ErrProfileNotFound
	}
	out := &Buyer{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, err
	}
	if out.PhoneNumber == "" {
		out.PhoneNumber = phone
	}
	return out, nil
}
