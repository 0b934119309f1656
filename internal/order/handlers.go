package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-mandi/internal/common"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

type queryProvider interface {
	CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error)
	ListOrdersByUser(ctx context.Context, arg dbgen.ListOrdersByUserParams) ([]dbgen.Order, error)
	GetOrderByID(ctx context.Context, id pgtype.UUID) (dbgen.Order, error)
	ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]dbgen.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, arg dbgen.UpdateOrderStatusParams) (int64, error)
}

// Handler exposes order read endpoints.
type Handler struct {
	Q queryProvider
}

// orderView is the public order payload.
type orderView struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	Subtotal         int64      `json:"subtotal"`
	DeliveryFee      int64      `json:"deliveryFee"`
	Total            int64      `json:"total"`
	RepaymentPercent int        `json:"repaymentPercent"`
	RepaymentKind    string     `json:"repaymentKind"`
	RepaymentRate    float64    `json:"repaymentRate"`
	RepaymentDays    int        `json:"repaymentDays"`
	FinalAmount      int64      `json:"finalAmount"`
	CreatedAt        any        `json:"createdAt"`
	Items            []itemView `json:"items,omitempty"`
}

type itemView struct {
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	Selection map[string]string `json:"selection,omitempty"`
	Qty       int               `json:"qty"`
	UnitPrice int64             `json:"unitPrice"`
	LineTotal int64             `json:"lineTotal"`
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	uID, err := toUUID(userID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	total, err := h.Q.CountOrdersByUser(r.Context(), uID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrdersByUser(r.Context(), dbgen.ListOrdersByUserParams{
		UserID: uID,
		Limit:  int32(perPage),
		Offset: int32(common.Offset(page, perPage)),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response := make([]orderView, 0, len(orders))
	for _, ord := range orders {
		response = append(response, viewFromRow(ord, nil))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSONList(w, http.StatusOK, response, common.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
	})
}

// Get handles GET /api/v1/orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	oID, err := toUUID(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	ord, err := h.Q.GetOrderByID(r.Context(), oID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	// owners only, unless the caller is an admin
	if uuidString(ord.UserID) != userID && common.Role(r.Context()) != common.RoleAdmin {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), ord.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, itemViewFromRow(it))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": viewFromRow(ord, views)})
}

// Confirmer updates order status from background workers.
type Confirmer struct {
	Q queryProvider
}

// ConfirmOrder transitions a placed order to confirmed.
func (c *Confirmer) ConfirmOrder(ctx context.Context, orderID string) error {
	if c == nil || c.Q == nil {
		return errors.New("order confirmer not configured")
	}
	oID, err := toUUID(orderID)
	if err != nil {
		return fmt.Errorf("invalid order id: %w", err)
	}
	affected, err := c.Q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ID: oID, Status: "confirmed"})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", orderID, common.ErrNotFound)
	}
	return nil
}

func viewFromRow(ord dbgen.Order, items []itemView) orderView {
	return orderView{
		ID:               uuidString(ord.ID),
		Status:           ord.Status,
		Subtotal:         ord.Subtotal,
		DeliveryFee:      ord.DeliveryFee,
		Total:            ord.Total,
		RepaymentPercent: int(ord.RepaymentPercent),
		RepaymentKind:    ord.RepaymentKind,
		RepaymentRate:    ord.RepaymentRate,
		RepaymentDays:    int(ord.RepaymentDays),
		FinalAmount:      ord.FinalAmount,
		CreatedAt:        ord.CreatedAt.Time,
		Items:            items,
	}
}

func itemViewFromRow(it dbgen.OrderItem) itemView {
	view := itemView{
		ProductID: uuidString(it.ProductID),
		Name:      it.Name,
		Qty:       int(it.Qty),
		UnitPrice: it.UnitPrice,
		LineTotal: it.LineTotal,
	}
	if len(it.Selection) > 0 {
		sel := map[string]string{}
		if err := json.Unmarshal(it.Selection, &sel); err == nil && len(sel) > 0 {
			view.Selection = sel
		}
	}
	return view
}

func toUUID(value string) (pgtype.UUID, error) {
	u, err := uuid.Parse(value)
	if err != nil {
		return pgtype.UUID{}, err
	}
	var out pgtype.UUID
	copy(out.Bytes[:], u[:])
	out.Valid = true
	return out, nil
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	u, err := uuid.FromBytes(id.Bytes[:])
	if err != nil {
		return ""
	}
	return u.String()
}
