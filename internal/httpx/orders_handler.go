package httpx

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-seller-assistant/internal/auth"
	"github.com/ariefcatur/go-seller-assistant/internal/export"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

const (
	maxInvoice    = 10 << 20
	notifyTimeout = 30 * time.Second
)

func (h *SellerHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := orders.OrderStatus(r.URL.Query().Get("status"))
	list, err := h.Service.ListOrders(r.Context(), auth.SellerID(r.Context()), status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": nonNil(list), "count": len(list)})
}

func (h *SellerHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Service.Order(r.Context(), auth.SellerID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *SellerHandler) exportOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListOrders(r.Context(), auth.SellerID(r.Context()), orders.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteOrders(&buf, list); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=orders.xlsx")
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// updateOrder accepts JSON, or multipart form fields plus an optional
// "invoice" file sent with a payment request.
func (h *SellerHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var upd orders.OrderUpdate
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		upd, err = orderUpdateFromForm(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
	} else if !decodeJSON(w, r, &upd) {
		return
	}

	ctx, cancel := detach(r.Context(), notifyTimeout)
	defer cancel()
	res, err := h.Service.UpdateOrderStatus(ctx, auth.SellerID(r.Context()), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Order updated successfully",
		"order":       res.Order,
		"notified":    len(res.Notified),
		"payment_url": paymentURL(res.PaymentLink),
	})
}

func paymentURL(l *orders.PaymentLink) string {
	if l == nil {
		return ""
	}
	return l.URL
}

func orderUpdateFromForm(r *http.Request) (orders.OrderUpdate, error) {
	var upd orders.OrderUpdate
	if err := r.ParseMultipartForm(maxInvoice); err != nil {
		return upd, fmt.Errorf("%w: bad multipart form", orders.ErrInvalidInput)
	}
	form := r.MultipartForm.Value
	get := func(k string) (string, bool) {
		v, ok := form[k]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	if v, ok := get("order_status"); ok {
		s := orders.OrderStatus(v)
		upd.OrderStatus = &s
	}
	if v, ok := get("payment_status"); ok {
		s := orders.PaymentStatus(v)
		upd.PaymentStatus = &s
	}
	if v, ok := get("buyer_phone"); ok {
		upd.BuyerPhone = &v
	}
	for key, dst := range map[string]**float64{"delivery_lat": &upd.DeliveryLat, "delivery_lng": &upd.DeliveryLng} {
		v, ok := get(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return upd, fmt.Errorf("%w: %s must be a number", orders.ErrInvalidInput, key)
		}
		*dst = &f
	}
	upd.CustomMessage, _ = get("custom_message")

	file, hdr, err := r.FormFile("invoice")
	if err == http.ErrMissingFile {
		return upd, nil
	}
	if err != nil {
		return upd, fmt.Errorf("%w: bad invoice upload", orders.ErrInvalidInput)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return upd, fmt.Errorf("read invoice: %w", err)
	}
	upd.Invoice = &orders.Attachment{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}
	return upd, nil
}

func (h *SellerHandler) listCancellations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListCancellations(r.Context(), auth.SellerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": nonNil(list), "count": len(list)})
}

func (h *SellerHandler) approveCancellation(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Service.ApproveCancellation(r.Context(), auth.SellerID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[httpx] cancellation approved order=%d", o.OrderID)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Cancellation approved", "order": o})
}

func (h *SellerHandler) rejectCancellation(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.Service.RejectCancellation(r.Context(), auth.SellerID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Cancellation rejected", "order": o})
}

func (h *SellerHandler) saveRazorpay(w http.ResponseWriter, r *http.Request) {
	var creds orders.RazorpayCredentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	if err := h.Service.SaveRazorpayCredentials(r.Context(), auth.SellerID(r.Context()), creds); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Razorpay credentials saved successfully"})
}

func (h *SellerHandler) razorpayStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.RazorpayStatus(r.Context(), auth.SellerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *SellerHandler) disconnectRazorpay(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DisconnectRazorpay(r.Context(), auth.SellerID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Razorpay disconnected successfully"})
}
