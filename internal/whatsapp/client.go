package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	BaseURL       string // e.g. https://graph.facebook.com/v18.0
	PhoneNumberID string
	AccessToken   string
	HTTP          *http.Client
}

func NewClient(baseURL, phoneNumberID, accessToken string) *Client {
	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		PhoneNumberID: phoneNumberID,
		AccessToken:   accessToken,
		HTTP:          &http.Client{Timeout: 20 * time.Second},
	}
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type documentBody struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type outbound struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    string        `json:"recipient_type"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textBody     `json:"text,omitempty"`
	Document         *documentBody `json:"document,omitempty"`
}

type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) SendText(ctx context.Context, to, text string) error {
	return c.send(ctx, outbound{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: text},
	})
}

// SendDocument uploads the file as media, then sends it with text as caption.
func (c *Client) SendDocument(ctx context.Context, to string, doc orders.Attachment, caption string) error {
	mediaID, err := c.upload(ctx, doc)
	if err != nil {
		return err
	}
	return c.send(ctx, outbound{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "document",
		Document:         &documentBody{ID: mediaID, Caption: caption, Filename: doc.Filename},
	})
}

func (c *Client) send(ctx context.Context, msg outbound) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("messages"), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req)
	return err
}

func (c *Client) upload(ctx context.Context, doc orders.Attachment) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("messaging_product", "whatsapp")
	_ = mw.WriteField("type", doc.ContentType)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, doc.Filename))
	h.Set("Content-Type", doc.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(doc.Data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("media"), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	body, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		return "", fmt.Errorf("upload media: no media id in response")
	}
	return out.ID, nil
}

func (c *Client) url(path string) string {
	return c.BaseURL + "/" + c.PhoneNumberID + "/" + path
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode/100 != 2 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error != nil {
			return nil, fmt.Errorf("whatsapp api %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return nil, fmt.Errorf("whatsapp api %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
