package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mandi/internal/common"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

type fakeCatalogQueries struct {
	categories []dbgen.Category
	products   map[string]dbgen.GetProductByIDRow
	list       []dbgen.ListProductsPublicRow
}

func (f *fakeCatalogQueries) ListCategories(context.Context) ([]dbgen.Category, error) {
	return append([]dbgen.Category(nil), f.categories...), nil
}

func (f *fakeCatalogQueries) GetCategoryByID(ctx context.Context, id pgtype.UUID) (dbgen.Category, error) {
	for _, cat := range f.categories {
		if cat.ID == id {
			return cat, nil
		}
	}
	return dbgen.Category{}, pgx.ErrNoRows
}

func (f *fakeCatalogQueries) CountProductsPublic(ctx context.Context, arg dbgen.CountProductsPublicParams) (int64, error) {
	return int64(len(f.list)), nil
}

func (f *fakeCatalogQueries) ListProductsPublic(ctx context.Context, arg dbgen.ListProductsPublicParams) ([]dbgen.ListProductsPublicRow, error) {
	return append([]dbgen.ListProductsPublicRow(nil), f.list...), nil
}

func (f *fakeCatalogQueries) GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.GetProductByIDRow, error) {
	row, ok := f.products[uuidString(id)]
	if !ok {
		return dbgen.GetProductByIDRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func mustUUID(t *testing.T, value string) pgtype.UUID {
	t.Helper()
	id, err := parseUUID(value)
	require.NoError(t, err)
	return id
}

func fixtureQueries(t *testing.T) (*fakeCatalogQueries, string) {
	t.Helper()
	productID := uuid.NewString()
	categoryID := uuid.NewString()
	attrs := []map[string]any{
		{"variety": "Basmati", "grade": "A", "priceToUser": 120000, "vendorPrice": 100000, "stock": 50, "displayStock": 40, "stockUnit": "kg"},
		{"variety": "Basmati", "grade": "B", "priceToUser": 100000, "vendorPrice": 80000, "stock": 30, "displayStock": 25, "stockUnit": "kg"},
	}
	raw, err := json.Marshal(attrs)
	require.NoError(t, err)

	row := dbgen.GetProductByIDRow{
		ID:              mustUUID(t, productID),
		CategoryID:      mustUUID(t, categoryID),
		Name:            "Basmati Rice",
		Slug:            "basmati-rice",
		Price:           110000,
		VendorPrice:     90000,
		Stock:           80,
		DisplayStock:    65,
		StockUnit:       "kg",
		AttributeStocks: raw,
	}
	queries := &fakeCatalogQueries{
		categories: []dbgen.Category{{ID: mustUUID(t, categoryID), Name: "Grains", Slug: "grains"}},
		products:   map[string]dbgen.GetProductByIDRow{productID: row},
		list: []dbgen.ListProductsPublicRow{{
			ID:           mustUUID(t, productID),
			Name:         "Basmati Rice",
			Slug:         "basmati-rice",
			Price:        110000,
			Stock:        80,
			DisplayStock: 65,
			StockUnit:    "kg",
		}},
	}
	return queries, productID
}

func newTestRouter(t *testing.T, queries queryProvider) chi.Router {
	t.Helper()
	service, err := NewService(ServiceConfig{Queries: queries})
	require.NoError(t, err)
	handler := NewHandler(HandlerConfig{Service: service})

	r := chi.NewRouter()
	r.Get("/api/v1/categories", handler.Categories)
	r.Get("/api/v1/products", handler.Products)
	r.Get("/api/v1/products/{id}", handler.ProductDetail)
	r.Post("/api/v1/products/{id}/resolve", handler.ResolveVariants)
	return r
}

func TestCategoriesEndpoint(t *testing.T) {
	queries, _ := fixtureQueries(t)
	router := newTestRouter(t, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data []Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "grains", body.Data[0].Slug)
}

func TestProductsEndpoint(t *testing.T) {
	queries, _ := fixtureQueries(t)
	router := newTestRouter(t, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))
	var body struct {
		Data []ProductListItem `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(110000), body.Data[0].Price)
	assert.True(t, body.Data[0].InStock)
}

func TestProductDetailIncludesStructure(t *testing.T) {
	queries, productID := fixtureQueries(t)
	router := newTestRouter(t, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+productID, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data ProductDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(110000), body.Data.Price)
	assert.Equal(t, "grade", body.Data.Structure.NameKey)
	assert.Equal(t, []string{"A", "B"}, body.Data.Structure.Names)
	require.NotNil(t, body.Data.Category)
	assert.Equal(t, "grains", body.Data.Category.Slug)
	// vendor price never leaks to public payloads
	for _, st := range body.Data.AttributeStocks {
		assert.Zero(t, st.VendorPrice)
	}
}

func TestProductDetailVendorRoleSeesVendorPrice(t *testing.T) {
	queries, productID := fixtureQueries(t)
	router := newTestRouter(t, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+productID, nil)
	req = req.WithContext(common.WithRole(req.Context(), common.RoleVendor))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data ProductDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(90000), body.Data.Price)
}

func TestProductDetailNotFound(t *testing.T) {
	queries, _ := fixtureQueries(t)
	router := newTestRouter(t, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestProductDetailBadID(t *testing.T) {
	queries, _ := fixtureQueries(t)
	router := newTestRouter(t, queries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestResolveVariantsEndpoint(t *testing.T) {
	queries, productID := fixtureQueries(t)
	router := newTestRouter(t, queries)

	payload := map[string]any{
		"quantities": map[string]int{
			Selection{"variety": "Basmati", "grade": "A"}.Key(): 2,
		},
	}
	buf, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/products/%s/resolve", productID), bytes.NewReader(buf))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(120000), body.Data.Price)
	assert.Equal(t, int64(240000), body.Data.Total)
	assert.Equal(t, 40, body.Data.Stock)
}

func TestResolveVariantsSelectionsDefaultToOne(t *testing.T) {
	queries, productID := fixtureQueries(t)
	router := newTestRouter(t, queries)

	payload := map[string]any{
		"selections": []Selection{{"variety": "Basmati", "grade": "B"}},
	}
	buf, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/products/%s/resolve", productID), bytes.NewReader(buf))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Data Resolution `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, int64(100000), body.Data.Total)
	assert.Equal(t, 1, body.Data.VariantCount)
}
