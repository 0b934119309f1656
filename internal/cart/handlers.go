package cart

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-mandi/internal/common"
	"github.com/noah-isme/backend-mandi/internal/credit"
	"github.com/noah-isme/backend-mandi/internal/obs"
)

// Handler exposes cart quote endpoints.
type Handler struct {
	service  *Service
	credit   *credit.Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies. Credit is optional;
// when set, quotes can carry a repayment preview.
type HandlerConfig struct {
	Service  *Service
	Credit   *credit.Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, credit: cfg.Credit, validate: v}
}

type quoteRequest struct {
	Items          []Item   `json:"items" validate:"required,min=1,dive"`
	SliderProgress *float64 `json:"sliderProgress" validate:"omitempty,gte=0,lte=100"`
}

// QuoteCart handles POST /api/v1/cart/quote.
func (h *Handler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart payload", nil)
		return
	}
	role := common.Role(r.Context())
	quote, err := h.service.QuoteCart(r.Context(), req.Items, role)
	if err != nil {
		if obs.CartQuoteTotal != nil {
			obs.CartQuoteTotal.WithLabelValues(role, "error").Inc()
		}
		h.writeError(w, err)
		return
	}
	if obs.CartQuoteTotal != nil {
		obs.CartQuoteTotal.WithLabelValues(role, "ok").Inc()
	}
	payload := map[string]any{"quote": quote}
	if req.SliderProgress != nil && h.credit != nil {
		repayment, err := h.credit.Preview(r.Context(), quote.Subtotal, *req.SliderProgress)
		if err != nil {
			h.writeError(w, err)
			return
		}
		payload["repayment"] = repayment
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": payload})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	if errors.Is(err, common.ErrInvalidInput) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid cart payload", nil)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
