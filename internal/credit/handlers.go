package credit

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-mandi/internal/common"
	"github.com/noah-isme/backend-mandi/internal/obs"
)

// Handler exposes repayment rule and preview endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Handler{service: cfg.Service, validate: v}
}

// Rules handles GET /api/v1/repayment/rules.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "credit service not configured", nil)
		return
	}
	rules, err := h.service.Rules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"rules":    rules,
			"segments": Segments(rules),
		},
	})
}

type previewRequest struct {
	Subtotal int64   `json:"subtotal" validate:"gte=0"`
	Percent  float64 `json:"percent" validate:"gte=0,lte=100"`
}

// Preview handles POST /api/v1/repayment/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "credit service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid preview request", validationDetails(err))
		return
	}
	result, err := h.service.Preview(r.Context(), req.Subtotal, req.Percent)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.CreditPreviewTotal != nil {
		obs.CreditPreviewTotal.WithLabelValues(result.Kind).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

type updateRulesRequest struct {
	Discounts []Tier `json:"discounts" validate:"dive"`
	Interests []Tier `json:"interests" validate:"dive"`
}

// UpdateRules handles PUT /api/v1/admin/repayment/rules.
func (h *Handler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "credit service not configured", nil)
		return
	}
	var req updateRulesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	rules := Rules{Discounts: req.Discounts, Interests: req.Interests}
	if err := h.service.UpdateRules(r.Context(), rules); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"rules":    rules,
			"segments": Segments(rules),
		},
	})
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, f := range verrs {
		fields = append(fields, f.Field())
	}
	return map[string]any{"fields": fields}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
