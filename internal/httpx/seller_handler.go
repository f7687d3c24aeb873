package httpx

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ariefcatur/go-seller-assistant/internal/auth"
	"github.com/ariefcatur/go-seller-assistant/internal/live"
	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

// SellerHandler serves the seller dashboard API.
type SellerHandler struct {
	Service  *orders.Service
	Issuer   *auth.Issuer
	Verifier auth.IDTokenVerifier // nil disables Google login
	Hub      *live.Hub            // nil disables /api/live

	// AllowDevLogin enables POST /api/login with a bare seller_id.
	AllowDevLogin bool
}

func (h *SellerHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Post("/api/login", h.devLogin)
		r.Post("/api/auth/google", h.googleLogin)
		r.Post("/api/logout", h.logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.Issuer))

		if h.Hub != nil {
			r.Get("/api/live", h.live)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Post("/api/onboarding", h.onboarding)
			r.Get("/api/data", h.data)
			r.Get("/api/seller_info", h.sellerInfo)
			r.Get("/api/company", h.getCompany)
			r.Post("/api/company", h.updateCompany)
			r.Post("/api/update_upi", h.updateUPI)

			r.Get("/api/products", h.listProducts)
			r.Post("/api/products", h.createProduct)
			r.Put("/api/products/{id}", h.updateProduct)
			r.Delete("/api/products/{id}", h.deleteProduct)

			r.Get("/api/orders", h.listOrders)
			r.Get("/api/orders/export.xlsx", h.exportOrders)
			r.Get("/api/orders/{id}", h.getOrder)
			r.Put("/api/orders/{id}", h.updateOrder)

			r.Get("/api/cancellations", h.listCancellations)
			r.Post("/api/cancellations/{id}/approve", h.approveCancellation)
			r.Post("/api/cancellations/{id}/reject", h.rejectCancellation)

			r.Post("/api/razorpay/credentials", h.saveRazorpay)
			r.Get("/api/razorpay/status", h.razorpayStatus)
			r.Post("/api/razorpay/disconnect", h.disconnectRazorpay)
		})
	})
}

type loginResp struct {
	Success   bool   `json:"success"`
	SellerID  string `json:"seller_id"`
	Token     string `json:"token"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
	IsNewUser bool   `json:"is_new_user"`
}

func (h *SellerHandler) devLogin(w http.ResponseWriter, r *http.Request) {
	if !h.AllowDevLogin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "dev login is disabled"})
		return
	}
	var req struct {
		SellerID string `json:"seller_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SellerID = strings.TrimSpace(req.SellerID)
	if req.SellerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Seller ID is required"})
		return
	}
	token, err := h.Issuer.Issue(auth.Claims{SellerID: req.SellerID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResp{Success: true, SellerID: req.SellerID, Token: token})
}

func (h *SellerHandler) googleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "google login is not configured"})
		return
	}
	var req struct {
		Credential string `json:"credential"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Credential == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Token is required"})
		return
	}

	id, err := auth.GoogleIdentity(r.Context(), h.Verifier, req.Credential)
	switch {
	case errors.Is(err, auth.ErrNoEmail):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Email not found in token"})
		return
	case err != nil:
		log.Printf("[httpx] google login: %v", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		return
	}

	_, isNew, err := h.Service.SellerProfile(r.Context(), id.Email, orders.CompanyInfo{
		Email: id.Email, CompanyName: id.Name, Picture: id.Picture,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.Issuer.Issue(auth.Claims{SellerID: id.Email, Email: id.Email, Name: id.Name, Picture: id.Picture})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[httpx] login ok seller=%s new=%v", id.Email, isNew)
	writeJSON(w, http.StatusOK, loginResp{
		Success: true, SellerID: id.Email, Token: token,
		Email: id.Email, Name: id.Name, Picture: id.Picture, IsNewUser: isNew,
	})
}

// logout is client-side: the session token is simply dropped.
func (h *SellerHandler) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SellerHandler) onboarding(w http.ResponseWriter, r *http.Request) {
	var info orders.CompanyInfo
	if !decodeJSON(w, r, &info) {
		return
	}
	if claims, ok := auth.ClaimsFrom(r.Context()); ok {
		if info.Email == "" {
			info.Email = claims.Email
		}
		if info.Picture == "" {
			info.Picture = claims.Picture
		}
	}
	if _, err := h.Service.Onboard(r.Context(), auth.SellerID(r.Context()), info); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Onboarding completed successfully"})
}

func (h *SellerHandler) data(w http.ResponseWriter, r *http.Request) {
	sellerID := auth.SellerID(r.Context())
	sel, err := h.Service.SellerData(r.Context(), sellerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"seller_id":    sellerID,
		"company_info": sel.CompanyInfo,
		"products":     nonNil(sel.Products),
		"orders":       nonNil(sel.Orders),
	})
}

func (h *SellerHandler) sellerInfo(w http.ResponseWriter, r *http.Request) {
	sellerID := auth.SellerID(r.Context())
	info, err := h.Service.CompanyInfo(r.Context(), sellerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":                  sellerID,
		"company_name":        info.CompanyName,
		"company_description": info.CompanyDescription,
		"upi_id":              info.UPIID,
		"email":               info.Email,
		"phone":               info.Phone,
		"picture":             info.Picture,
	})
}

func (h *SellerHandler) getCompany(w http.ResponseWriter, r *http.Request) {
	info, err := h.Service.CompanyInfo(r.Context(), auth.SellerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// updateCompany only overwrites the fields present in the body.
func (h *SellerHandler) updateCompany(w http.ResponseWriter, r *http.Request) {
	sellerID := auth.SellerID(r.Context())
	info, err := h.Service.CompanyInfo(r.Context(), sellerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !decodeJSON(w, r, &info) {
		return
	}
	if _, err := h.Service.UpdateCompanyInfo(r.Context(), sellerID, info); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Company information updated successfully")
}

func (h *SellerHandler) updateUPI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UPIID string `json:"upi_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.UpdateUPI(r.Context(), auth.SellerID(r.Context()), req.UPIID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "UPI ID updated successfully", "upi_id": strings.TrimSpace(req.UPIID)})
}

func (h *SellerHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Service.ListProducts(r.Context(), auth.SellerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": nonNil(ps), "count": len(ps)})
}

func (h *SellerHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in orders.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := h.Service.CreateProduct(r.Context(), auth.SellerID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Product created successfully", "product": p})
}

func (h *SellerHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch orders.ProductPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	p, err := h.Service.UpdateProduct(r.Context(), auth.SellerID(r.Context()), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Product updated successfully", "product": p})
}

func (h *SellerHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Service.DeleteProduct(r.Context(), auth.SellerID(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Product deleted successfully")
}

func (h *SellerHandler) live(w http.ResponseWriter, r *http.Request) {
	h.Hub.Serve(w, r, auth.SellerID(r.Context()))
}

// detach keeps request values but outlives the request, for work that
// should finish even if the dashboard disconnects.
func detach(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), d)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
