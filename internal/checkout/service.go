package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-mandi/internal/cart"
	"github.com/noah-isme/backend-mandi/internal/catalog"
	"github.com/noah-isme/backend-mandi/internal/common"
	"github.com/noah-isme/backend-mandi/internal/credit"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
	"github.com/noah-isme/backend-mandi/internal/queue"
)

// Input is the checkout request payload.
type Input struct {
	Items     []cart.Item `json:"items"`
	Repayment struct {
		Percent float64 `json:"percent"`
	} `json:"repayment"`
	Notes *string `json:"notes"`
}

// Output is the checkout response payload.
type Output struct {
	OrderID     string        `json:"orderId"`
	Status      string        `json:"status"`
	Quote       cart.Quote    `json:"quote"`
	Repayment   credit.Result `json:"repayment"`
	FinalAmount int64         `json:"finalAmount"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Service turns a validated cart into a stored order.
type Service struct {
	Q       *dbgen.Queries
	Pool    *pgxpool.Pool
	CartSvc *cart.Service
	Credit  *credit.Service
	Queue   *queue.Enqueuer
}

// Create validates the cart, prices it, applies the repayment preview, and
// persists the order with its items inside one transaction.
func (s *Service) Create(ctx context.Context, userID string, role string, in Input) (Output, error) {
	if s == nil || s.Q == nil || s.Pool == nil || s.CartSvc == nil || s.Credit == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if userID == "" {
		return Output{}, errors.New("user is required for checkout")
	}
	uID, err := toUUID(userID)
	if err != nil {
		return Output{}, fmt.Errorf("invalid user id: %w", err)
	}
	if len(in.Items) == 0 {
		return Output{}, &common.AppError{
			Code:       "EMPTY_CART",
			Message:    "cart must contain at least one item",
			HTTPStatus: http.StatusBadRequest,
			Err:        common.ErrInvalidInput,
		}
	}

	products, missing, err := s.CartSvc.LoadProducts(ctx, in.Items)
	if err != nil {
		return Output{}, err
	}
	if len(missing) > 0 {
		return Output{}, &common.AppError{
			Code:       "UNKNOWN_PRODUCT",
			Message:    "cart references unknown products",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        common.ErrInvalidInput,
			Details:    map[string]any{"productIds": missing},
		}
	}
	if incomplete := IncompleteSelections(in.Items, products); len(incomplete) > 0 {
		return Output{}, selectionRequired(incomplete)
	}

	quote, err := s.CartSvc.QuoteCart(ctx, in.Items, role)
	if err != nil {
		return Output{}, err
	}
	if !quote.MeetsMinimum {
		return Output{}, &common.AppError{
			Code:       "MIN_ORDER_NOT_MET",
			Message:    "order total is below the minimum order value",
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        common.ErrInvalidInput,
			Details: map[string]any{
				"minOrder":  quote.MinOrder,
				"shortfall": quote.Shortfall,
			},
		}
	}

	rules, err := s.Credit.Rules(ctx)
	if err != nil {
		return Output{}, err
	}
	repayment := credit.Calculate(quote.Subtotal, in.Repayment.Percent, rules)
	// the repayment adjustment applies to the goods subtotal; the delivery
	// fee is due in full either way
	finalAmount := repayment.Final + quote.DeliveryFee

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	qtx := s.Q.WithTx(tx)

	order, err := qtx.CreateOrder(ctx, dbgen.CreateOrderParams{
		UserID:           uID,
		Status:           "placed",
		Subtotal:         quote.Subtotal,
		DeliveryFee:      quote.DeliveryFee,
		Total:            quote.Total,
		RepaymentPercent: int32(math.Round(repayment.Percent)),
		RepaymentKind:    repayment.Kind,
		RepaymentRate:    repayment.RatePct,
		RepaymentDays:    int32(repayment.Days),
		FinalAmount:      finalAmount,
	})
	if err != nil {
		return Output{}, fmt.Errorf("create order: %w", err)
	}
	for _, group := range quote.Groups {
		pid, err := toUUID(group.ProductID)
		if err != nil {
			return Output{}, fmt.Errorf("invalid product id %s: %w", group.ProductID, err)
		}
		var groupQty int32
		for _, item := range group.Items {
			if err := qtx.CreateOrderItem(ctx, dbgen.CreateOrderItemParams{
				OrderID:   order.ID,
				ProductID: pid,
				Name:      item.Name,
				Selection: selectionJSON(item.Selection),
				Qty:       int32(item.Qty),
				UnitPrice: item.UnitPrice,
				LineTotal: item.LineTotal,
			}); err != nil {
				return Output{}, fmt.Errorf("create order item: %w", err)
			}
			groupQty += int32(item.Qty)
		}
		affected, err := qtx.DecrementProductStock(ctx, dbgen.DecrementProductStockParams{ID: pid, Qty: groupQty})
		if err != nil {
			return Output{}, fmt.Errorf("decrement stock: %w", err)
		}
		if affected == 0 {
			return Output{}, &common.AppError{
				Code:       "INSUFFICIENT_STOCK",
				Message:    "not enough stock for product",
				HTTPStatus: http.StatusConflict,
				Err:        common.ErrInvalidInput,
				Details:    map[string]any{"productId": group.ProductID},
			}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	orderID := uuidString(order.ID)
	if s.Queue != nil {
		_ = s.Queue.EnqueueOrderPlaced(ctx, queue.OrderPlacedPayload{
			OrderID:     orderID,
			UserID:      userID,
			FinalAmount: finalAmount,
		})
	}

	return Output{
		OrderID:     orderID,
		Status:      "placed",
		Quote:       quote,
		Repayment:   repayment,
		FinalAmount: finalAmount,
		CreatedAt:   order.CreatedAt.Time,
	}, nil
}

// IncompleteSelections returns the ids of products that carry variant
// stocks but whose cart lines either lack a selection or reference a
// combination that no longer exists.
func selectionRequired(productIDs []string) error {
	return &common.AppError{
		Code:       "SELECTION_REQUIRED",
		Message:    "products with variants require a complete selection",
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        catalog.ErrVariantRequired,
		Details:    map[string]any{"productIds": productIDs},
	}
}

func IncompleteSelections(items []cart.Item, products map[string]cart.ProductInfo) []string {
	var out []string
	flagged := map[string]struct{}{}
	for _, item := range items {
		info := products[item.ProductID]
		if len(info.Stocks) == 0 {
			continue
		}
		if _, done := flagged[item.ProductID]; done {
			continue
		}
		if len(item.Selection) == 0 {
			flagged[item.ProductID] = struct{}{}
			out = append(out, item.ProductID)
			continue
		}
		if _, ok := catalog.FindStock(info.Stocks, item.Selection); !ok {
			flagged[item.ProductID] = struct{}{}
			out = append(out, item.ProductID)
		}
	}
	return out
}

func selectionJSON(sel catalog.Selection) []byte {
	if len(sel) == 0 {
		return []byte("{}")
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return []byte("{}")
	}
	return data
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
