package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
	CreatedAt     Timestamp       `json:"created_at"`
}

// CartItem is one line in a buyer's cart. UnitPrice is frozen when the line
// is first added; later price changes on the product do not touch it.
type CartItem struct {
	ProductID   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type Order struct {
	OrderID            int             `json:"order_id"`
	SellerID           string          `json:"seller_id"`
	BuyerName          string          `json:"buyer_name"`
	BuyerPhone         string          `json:"buyer_phone"`
	DeliveryAddress    string          `json:"delivery_address"`
	DeliveryLat        float64         `json:"delivery_lat"`
	DeliveryLng        float64         `json:"delivery_lng"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	OrderStatus        OrderStatus     `json:"order_status"`
	CreatedAt          Timestamp       `json:"created_at"`
	Items              []CartItem      `json:"items"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	PaymentLinkID      string          `json:"payment_link_id,omitempty"`
	RazorpayPaymentID  string          `json:"razorpay_payment_id,omitempty"`
	PaymentCompletedAt *Timestamp      `json:"payment_completed_at,omitempty"`
}

type CompanyInfo struct {
	CompanyName        string `json:"company_name"`
	CompanyDescription string `json:"company_description"`
	OwnerName          string `json:"owner_name"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Address            string `json:"address"`
	City               string `json:"city"`
	State              string `json:"state"`
	Pincode            string `json:"pincode"`
	Country            string `json:"country"`
	UPIID              string `json:"upi_id"`
	Picture            string `json:"picture,omitempty"`
}

type RazorpayCredentials struct {
	APIKey        string `json:"api_key"`
	APISecret     string `json:"api_secret"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
	Enabled       bool   `json:"enabled"`
}

// Usable reports whether payment links can be created with these credentials.
func (c *RazorpayCredentials) Usable() bool {
	return c != nil && c.Enabled && c.APIKey != "" && c.APISecret != ""
}

type Seller struct {
	ID     string `json:"-"`
	Exists bool   `json:"-"` // false for an id that was never written

	CompanyInfo  CompanyInfo          `json:"company_info"`
	Products     []Product            `json:"products"`
	Orders       []Order              `json:"orders"`
	Cancellation []int                `json:"cancellation,omitempty"`
	Razorpay     *RazorpayCredentials `json:"razorpay_credentials,omitempty"`
}

type Buyer struct {
	PhoneNumber string     `json:"phone_number"`
	Name        string     `json:"name"`
	CreatedAt   Timestamp  `json:"created_at"`
	Cart        []CartItem `json:"cart"`
	Orders      []Order    `json:"orders"`
}

func (s *Seller) orderIndex(orderID int) int {
	for i := range s.Orders {
		if s.Orders[i].OrderID == orderID {
			return i
		}
	}
	return -1
}

func (s *Seller) product(productID int) (Product, bool) {
	for _, p := range s.Products {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}

// nextOrderID never reuses an id, even after approved cancellations shrink
// the order list.
func (s *Seller) nextOrderID() int {
	next := len(s.Orders)
	for _, o := range s.Orders {
		if o.OrderID > next {
			next = o.OrderID
		}
	}
	return next + 1
}

func (s *Seller) nextProductID() int {
	next := 0
	for _, p := range s.Products {
		if p.ID > next {
			next = p.ID
		}
	}
	return next + 1
}

func (s *Seller) cancellationPending(orderID int) bool {
	for _, id := range s.Cancellation {
		if id == orderID {
			return true
		}
	}
	return false
}

func (s *Seller) dropCancellation(orderID int) {
	out := s.Cancellation[:0]
	for _, id := range s.Cancellation {
		if id != orderID {
			out = append(out, id)
		}
	}
	s.Cancellation = out
}

// Timestamp accepts the RFC 3339 form and the zone-less ISO form older
// records were written with.
type Timestamp struct{ time.Time }

func NewTimestamp(t time.Time) Timestamp { return Timestamp{t} }
