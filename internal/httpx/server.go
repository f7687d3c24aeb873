package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ariefcatur/go-seller-assistant/internal/orders"
)

const (
	maxBody = 1 << 20
	// request timeout for everything except the live websocket
	requestTimeout = 15 * time.Second
)

// NewRouter carries the shared middleware. Timeouts are set per route
// group so the websocket feed is not cut off.
func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// writeError maps service errors to status codes. Storage and unexpected
// failures are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, orders.ErrInvalidInput), errors.Is(err, orders.ErrEmptyCart):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrNotFound), errors.Is(err, orders.ErrProfileNotFound):
		code = http.StatusNotFound
	case errors.Is(err, orders.ErrProfileExists):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrGateway):
		code = http.StatusBadGateway
	}
	if code == http.StatusInternalServerError {
		log.Printf("[httpx] %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, code, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", orders.ErrInvalidInput, name)
	}
	return v, nil
}
