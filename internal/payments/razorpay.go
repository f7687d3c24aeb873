package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
	"github.com/shopspring/decimal"
)

// Client talks to the Razorpay Payment Links API with per-seller keys.
type Client struct {
	BaseURL     string
	CallbackURL string
	HTTP        *http.Client
}

func NewClient(baseURL, callbackURL string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		CallbackURL: callbackURL,
		HTTP:        &http.Client{Timeout: 15 * time.Second},
	}
}

var _ orders.PaymentLinker = (*Client)(nil)

type linkCustomer struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

type linkNotify struct {
	SMS   bool `json:"sms"`
	Email bool `json:"email"`
}

type createLinkRequest struct {
	Amount         int64             `json:"amount"` // paise
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	Customer       linkCustomer      `json:"customer"`
	Notify         linkNotify        `json:"notify"`
	ReminderEnable bool              `json:"reminder_enable"`
	Notes          map[string]string `json:"notes"`
	CallbackURL    string            `json:"callback_url,omitempty"`
	CallbackMethod string            `json:"callback_method,omitempty"`
}

type createLinkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
	Error    *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// ToPaise converts rupees to paise, rounding half away from zero.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// CreatePaymentLink creates a link for the order. Razorpay's own SMS and
// email notifications are off; the buyer is told over WhatsApp.
func (c *Client) CreatePaymentLink(ctx context.Context, creds orders.RazorpayCredentials, req orders.PaymentLinkRequest) (orders.PaymentLink, error) {
	paise := ToPaise(req.Amount)
	if paise <= 0 {
		return orders.PaymentLink{}, fmt.Errorf("%w: amount must be positive", orders.ErrGateway)
	}
	body := createLinkRequest{
		Amount:         paise,
		Currency:       "INR",
		Description:    req.Description,
		Customer:       linkCustomer{Name: req.CustomerName, Contact: req.CustomerPhone},
		Notify:         linkNotify{SMS: false, Email: false},
		ReminderEnable: true,
		Notes: map[string]string{
			"seller_id": req.SellerID,
			"order_id":  strconv.Itoa(req.OrderID),
		},
	}
	if c.CallbackURL != "" {
		body.CallbackURL, body.CallbackMethod = c.CallbackURL, "get"
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return orders.PaymentLink{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/payment_links", bytes.NewReader(jsonData))
	if err != nil {
		return orders.PaymentLink{}, err
	}
	httpReq.SetBasicAuth(creds.APIKey, creds.APISecret)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return orders.PaymentLink{}, fmt.Errorf("%w: failed to reach razorpay: %w", orders.ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out createLinkResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Description != "" {
			return orders.PaymentLink{}, fmt.Errorf("%w: razorpay %d %s: %s", orders.ErrGateway, resp.StatusCode, out.Error.Code, out.Error.Description)
		}
		return orders.PaymentLink{}, fmt.Errorf("%w: razorpay %d: %s", orders.ErrGateway, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out.ID == "" || out.ShortURL == "" {
		return orders.PaymentLink{}, fmt.Errorf("%w: razorpay returned an empty payment link", orders.ErrGateway)
	}
	return orders.PaymentLink{ID: out.ID, URL: out.ShortURL}, nil
}
