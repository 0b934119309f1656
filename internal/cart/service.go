package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-mandi/internal/catalog"
	"github.com/noah-isme/backend-mandi/internal/common"
	"github.com/noah-isme/backend-mandi/internal/config"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

type queryProvider interface {
	GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.GetProductByIDRow, error)
}

// Service computes cart quotes against live catalog data.
type Service struct {
	Q   queryProvider
	Cfg *config.Config
}

// LoadProducts resolves catalog data for every distinct product in the
// cart. Items referencing unknown or inactive products are reported back
// so callers can reject the cart.
func (s *Service) LoadProducts(ctx context.Context, items []Item) (map[string]ProductInfo, []string, error) {
	if s == nil || s.Q == nil {
		return nil, nil, errors.New("cart service not configured")
	}
	products := map[string]ProductInfo{}
	var missing []string
	seen := map[string]struct{}{}
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}

		pid, err := toUUID(item.ProductID)
		if err != nil {
			missing = append(missing, item.ProductID)
			continue
		}
		row, err := s.Q.GetProductByID(ctx, pid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				missing = append(missing, item.ProductID)
				continue
			}
			return nil, nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		stocks, err := catalog.ParseAttributeStocks(row.AttributeStocks)
		if err != nil {
			return nil, nil, fmt.Errorf("product %s: %w", item.ProductID, err)
		}
		products[item.ProductID] = ProductInfo{
			Name: row.Name,
			Base: catalog.BaseProduct{
				Price:        row.Price,
				VendorPrice:  row.VendorPrice,
				Stock:        int(row.Stock),
				DisplayStock: int(row.DisplayStock),
				Unit:         row.StockUnit,
			},
			Stocks: stocks,
		}
	}
	return products, missing, nil
}

// QuoteCart prices the submitted items for the given buyer role.
func (s *Service) QuoteCart(ctx context.Context, items []Item, role string) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, common.ErrInvalidInput
	}
	products, missing, err := s.LoadProducts(ctx, items)
	if err != nil {
		return Quote{}, err
	}
	if len(missing) > 0 {
		return Quote{}, &common.AppError{
			Code:       "UNKNOWN_PRODUCT",
			Message:    "cart references unknown products",
			HTTPStatus: 422,
			Err:        common.ErrInvalidInput,
			Details:    map[string]any{"productIds": missing},
		}
	}
	return ComputeQuote(items, products, role, s.thresholds(role)), nil
}

func (s *Service) thresholds(role string) Thresholds {
	limits := Thresholds{
		FreeDelivery: 500000,
		DeliveryFee:  5000,
		MinOrder:     200000,
	}
	if s != nil && s.Cfg != nil {
		limits.FreeDelivery = s.Cfg.FreeDeliveryThreshold
		limits.DeliveryFee = s.Cfg.DeliveryFee
		limits.MinOrder = s.Cfg.MinOrderFor(role)
	}
	return limits
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
