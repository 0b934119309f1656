package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/noah-isme/backend-mandi/internal/common"
	"github.com/noah-isme/backend-mandi/internal/obs"
)

// Handler exposes the checkout endpoint.
type Handler struct {
	Svc *Service
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	start := time.Now()
	out, err := h.Svc.Create(r.Context(), userID, common.Role(r.Context()), payload)
	if err != nil {
		observeCheckout(start, "error")
		h.writeError(w, err)
		return
	}
	observeCheckout(start, "ok")
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func observeCheckout(start time.Time, result string) {
	if obs.OrderPlacedTotal != nil {
		obs.OrderPlacedTotal.WithLabelValues(result).Inc()
	}
	if obs.CheckoutLatency != nil {
		obs.CheckoutLatency.WithLabelValues(result).Observe(float64(time.Since(start).Milliseconds()))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
}
