package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mandi/internal/common"
	"github.com/noah-isme/backend-mandi/internal/config"
	"github.com/noah-isme/backend-mandi/internal/credit"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

type fakeProductQueries struct {
	products map[pgtype.UUID]dbgen.GetProductByIDRow
}

func (f *fakeProductQueries) GetProductByID(ctx context.Context, id pgtype.UUID) (dbgen.GetProductByIDRow, error) {
	row, ok := f.products[id]
	if !ok {
		return dbgen.GetProductByIDRow{}, pgx.ErrNoRows
	}
	return row, nil
}

type fakeTierQueries struct{}

func (fakeTierQueries) ListRepaymentTiers(ctx context.Context) ([]dbgen.RepaymentTier, error) {
	return nil, nil
}

func (fakeTierQueries) DeleteRepaymentTiers(ctx context.Context) error { return nil }

func (fakeTierQueries) InsertRepaymentTier(ctx context.Context, arg dbgen.InsertRepaymentTierParams) (pgtype.UUID, error) {
	return pgtype.UUID{}, nil
}

func quoteFixture(t *testing.T) (*Handler, string) {
	t.Helper()
	productID := uuid.NewString()
	pid, err := toUUID(productID)
	require.NoError(t, err)

	queries := &fakeProductQueries{products: map[pgtype.UUID]dbgen.GetProductByIDRow{
		pid: {
			ID:          pid,
			Name:        "Wheat Flour",
			Price:       50000,
			VendorPrice: 40000,
			Stock:       100,
		},
	}}
	cfg := &config.Config{
		FreeDeliveryThreshold: 500000,
		DeliveryFee:           5000,
		MinOrderUser:          200000,
		MinOrderVendor:        500000,
	}
	creditService, err := credit.NewService(credit.ServiceConfig{Queries: fakeTierQueries{}})
	require.NoError(t, err)
	handler := NewHandler(HandlerConfig{Service: &Service{Q: queries, Cfg: cfg}, Credit: creditService})
	return handler, productID
}

type quoteResponse struct {
	Data struct {
		Quote     Quote          `json:"quote"`
		Repayment *credit.Result `json:"repayment"`
	} `json:"data"`
}

func postQuote(t *testing.T, handler *Handler, body any, role string) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", bytes.NewReader(buf))
	if role != "" {
		req = req.WithContext(common.WithRole(req.Context(), role))
	}
	rr := httptest.NewRecorder()
	handler.QuoteCart(rr, req)
	return rr
}

func TestQuoteCartEndpoint(t *testing.T) {
	handler, productID := quoteFixture(t)

	rr := postQuote(t, handler, map[string]any{
		"items": []Item{{ProductID: productID, Qty: 5}},
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(250000), resp.Data.Quote.Subtotal)
	assert.Equal(t, int64(5000), resp.Data.Quote.DeliveryFee)
	assert.True(t, resp.Data.Quote.MeetsMinimum)
	assert.Nil(t, resp.Data.Repayment)
}

func TestQuoteCartVendorPricing(t *testing.T) {
	handler, productID := quoteFixture(t)

	rr := postQuote(t, handler, map[string]any{
		"items": []Item{{ProductID: productID, Qty: 5}},
	}, common.RoleVendor)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(200000), resp.Data.Quote.Subtotal)
	// vendor minimum is higher than the user minimum
	assert.False(t, resp.Data.Quote.MeetsMinimum)
	assert.Equal(t, int64(500000), resp.Data.Quote.MinOrder)
}

func TestQuoteCartWithRepaymentPreview(t *testing.T) {
	handler, productID := quoteFixture(t)

	rr := postQuote(t, handler, map[string]any{
		"items":          []Item{{ProductID: productID, Qty: 5}},
		"sliderProgress": 0,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data.Repayment)
	// slider at zero lands on the first discount tier of the defaults
	assert.Equal(t, credit.KindDiscount, resp.Data.Repayment.Kind)
	assert.Equal(t, int64(12500), int64(resp.Data.Repayment.Amount))
	assert.Equal(t, int64(237500), int64(resp.Data.Repayment.Final))
}

func TestQuoteCartRejectsBadSlider(t *testing.T) {
	handler, productID := quoteFixture(t)
	rr := postQuote(t, handler, map[string]any{
		"items":          []Item{{ProductID: productID, Qty: 1}},
		"sliderProgress": 140,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQuoteCartRejectsEmpty(t *testing.T) {
	handler, _ := quoteFixture(t)
	rr := postQuote(t, handler, map[string]any{"items": []Item{}}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQuoteCartUnknownProduct(t *testing.T) {
	handler, _ := quoteFixture(t)
	rr := postQuote(t, handler, map[string]any{
		"items": []Item{{ProductID: uuid.NewString(), Qty: 1}},
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}
