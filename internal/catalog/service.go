package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-mandi/internal/common"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

type queryProvider interface {
	ListCategories(ctx context.Context) ([]dbgen.Category, error)
	GetCategoryByID(ctx context.Context, id pgtype.UUID) (dbgen.Category, error)
	CountProductsPublic(ctx context.Context, arg dbgen.CountProductsPublicParams) (int64, error)
	ListProductsPublic(ctx context.Context, arg dbgen.ListProductsPublicParams) ([]dbgen.ListProductsPublicRow, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.GetProductByIDRow, error)
}

// Service orchestrates catalog queries, variant resolution, and caching.
type Service struct {
	queries      queryProvider
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ProductListItem represents an entry in list responses.
type ProductListItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Price        int64  `json:"price"`
	DisplayStock int    `json:"displayStock"`
	StockUnit    string `json:"stockUnit"`
	ImageURL     string `json:"imageUrl,omitempty"`
	InStock      bool   `json:"inStock"`
}

// ProductDetail aggregates the full detail payload including the variant
// presentation structure.
type ProductDetail struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Slug            string           `json:"slug"`
	Description     string           `json:"description,omitempty"`
	Price           int64            `json:"price"`
	DisplayStock    int              `json:"displayStock"`
	StockUnit       string           `json:"stockUnit"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	InStock         bool             `json:"inStock"`
	Category        *Category        `json:"category,omitempty"`
	AttributeStocks []AttributeStock `json:"attributeStocks"`
	Structure       Structure        `json:"structure"`
}

// Category represents the public category payload.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))
	params.Category = strings.TrimSpace(values.Get("category"))
	if params.Category != "" {
		if _, err := uuid.Parse(params.Category); err != nil {
			return params, badRequest("category", "category must be a valid id", err)
		}
	}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListCategories returns all categories sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	if s.cache != nil {
		var cached []Category
		ok, err := s.cache.GetJSON(ctx, categoriesCacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	result := make([]Category, 0, len(rows))
	for _, row := range rows {
		result = append(result, Category{
			ID:   uuidString(row.ID),
			Name: row.Name,
			Slug: row.Slug,
		})
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, categoriesCacheKey, result)
	}
	return result, nil
}

// ListProducts returns the filtered product list with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	key, shouldUseCache := s.listCacheKey(params)
	if shouldUseCache && s.cache != nil {
		var cached cachedList
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil && ok {
			return ProductListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	countParams := dbgen.CountProductsPublicParams{
		CategoryID: optionalUUID(params.Category),
		Q:          optionalText(params.Query),
	}
	total, err := s.queries.CountProductsPublic(ctx, countParams)
	if err != nil {
		return ProductListResult{}, fmt.Errorf("count products: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.queries.ListProductsPublic(ctx, dbgen.ListProductsPublicParams{
		Limit:      int32(params.Limit),
		Offset:     offset,
		CategoryID: countParams.CategoryID,
		Q:          countParams.Q,
	})
	if err != nil {
		return ProductListResult{}, fmt.Errorf("list products: %w", err)
	}
	items := make([]ProductListItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, ProductListItem{
			ID:           uuidString(row.ID),
			Name:         row.Name,
			Slug:         row.Slug,
			Price:        row.Price,
			DisplayStock: int(row.DisplayStock),
			StockUnit:    defaultUnit(row.StockUnit),
			ImageURL:     row.ImageUrl,
			InStock:      row.DisplayStock > 0 || row.Stock > 0,
		})
	}
	result := ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if shouldUseCache && s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

// GetProductDetail loads a product with its variant stocks and the derived
// presentation structure. Prices reflect the buyer role.
func (s *Service) GetProductDetail(ctx context.Context, id string, role string) (ProductDetail, error) {
	pid, err := parseUUID(id)
	if err != nil {
		return ProductDetail{}, badRequest("id", "product id must be a valid uuid", err)
	}
	cacheKey := detailCacheKey(id, role)
	if s.cache != nil {
		var cached ProductDetail
		ok, err := s.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	row, err := s.queries.GetProductByID(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductDetail{}, notFound("product not found", err)
		}
		return ProductDetail{}, fmt.Errorf("get product: %w", err)
	}
	stocks, err := ParseAttributeStocks(row.AttributeStocks)
	if err != nil {
		return ProductDetail{}, fmt.Errorf("product %s: %w", id, err)
	}
	base := baseFromRow(row)
	detail := ProductDetail{
		ID:              uuidString(row.ID),
		Name:            row.Name,
		Slug:            row.Slug,
		Description:     row.Description,
		Price:           base.PriceFor(role),
		DisplayStock:    displayOrActual(base),
		StockUnit:       defaultUnit(base.Unit),
		ImageURL:        row.ImageUrl,
		InStock:         row.DisplayStock > 0 || row.Stock > 0,
		AttributeStocks: presentStocks(stocks, role),
		Structure:       ResolveStructure(stocks),
	}
	if row.CategoryID.Valid {
		if cat, err := s.queries.GetCategoryByID(ctx, row.CategoryID); err == nil {
			detail.Category = &Category{ID: uuidString(cat.ID), Name: cat.Name, Slug: cat.Slug}
		}
	}
	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKey, detail)
	}
	return detail, nil
}

// ResolveVariants computes the display resolution for a product given the
// caller's current selection state.
func (s *Service) ResolveVariants(ctx context.Context, id string, q Quantities, role string) (Resolution, error) {
	pid, err := parseUUID(id)
	if err != nil {
		return Resolution{}, badRequest("id", "product id must be a valid uuid", err)
	}
	row, err := s.queries.GetProductByID(ctx, pid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resolution{}, notFound("product not found", err)
		}
		return Resolution{}, fmt.Errorf("get product: %w", err)
	}
	stocks, err := ParseAttributeStocks(row.AttributeStocks)
	if err != nil {
		return Resolution{}, fmt.Errorf("product %s: %w", id, err)
	}
	return Resolve(baseFromRow(row), stocks, q, role), nil
}

func baseFromRow(row dbgen.GetProductByIDRow) BaseProduct {
	return BaseProduct{
		Price:        row.Price,
		VendorPrice:  row.VendorPrice,
		Stock:        int(row.Stock),
		DisplayStock: int(row.DisplayStock),
		Unit:         row.StockUnit,
	}
}

func displayOrActual(base BaseProduct) int {
	if base.DisplayStock > 0 {
		return base.DisplayStock
	}
	return base.Stock
}

func defaultUnit(unit string) string {
	if strings.TrimSpace(unit) == "" {
		return DefaultStockUnit
	}
	return unit
}

// presentStocks rewrites each entry's price for the buyer role and strips
// the vendor price from the public payload.
func presentStocks(stocks []AttributeStock, role string) []AttributeStock {
	out := make([]AttributeStock, 0, len(stocks))
	for _, st := range stocks {
		st.Price = st.PriceFor(role)
		st.VendorPrice = 0
		out = append(out, st)
	}
	return out
}

type cachedList struct {
	Items []ProductListItem `json:"items"`
	Total int64             `json:"total"`
}

const categoriesCacheKey = "catalog:categories"

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit {
		return "", false
	}
	if params.Query != "" || params.Category != "" {
		return "", false
	}
	return "catalog:products:list:front", true
}

func detailCacheKey(id, role string) string {
	if role == "" {
		role = "user"
	}
	return "catalog:products:detail:" + role + ":" + id
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}

func optionalUUID(value string) pgtype.UUID {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.UUID{}
	}
	id, err := parseUUID(trimmed)
	if err != nil {
		return pgtype.UUID{}
	}
	return id
}

func parseUUID(value string) (pgtype.UUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(value))
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

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}

func notFound(message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}
