package credit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

type fakeTierQueries struct {
	rows []dbgen.RepaymentTier
}

func (f *fakeTierQueries) ListRepaymentTiers(context.Context) ([]dbgen.RepaymentTier, error) {
	return append([]dbgen.RepaymentTier(nil), f.rows...), nil
}

func (f *fakeTierQueries) DeleteRepaymentTiers(context.Context) error {
	f.rows = nil
	return nil
}

func (f *fakeTierQueries) InsertRepaymentTier(ctx context.Context, arg dbgen.InsertRepaymentTierParams) (pgtype.UUID, error) {
	f.rows = append(f.rows, dbgen.RepaymentTier{
		Kind:     arg.Kind,
		StartDay: arg.StartDay,
		EndDay:   arg.EndDay,
		RatePct:  arg.RatePct,
		Label:    arg.Label,
		Position: arg.Position,
	})
	return pgtype.UUID{}, nil
}

func newTestService(t *testing.T, queries *fakeTierQueries) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{Queries: queries})
	require.NoError(t, err)
	return service
}

func TestRulesFallBackToDefaults(t *testing.T) {
	service := newTestService(t, &fakeTierQueries{})
	rules, err := service.Rules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestRulesNormalisesStoredTiers(t *testing.T) {
	queries := &fakeTierQueries{rows: []dbgen.RepaymentTier{
		{Kind: KindDiscount, StartDay: 0, EndDay: 10, RatePct: 3, Label: "Early"},
		{Kind: KindDiscount, StartDay: 20, EndDay: 20, RatePct: 1, Label: "Inverted"},
		{Kind: KindInterest, StartDay: 40, EndDay: 90, RatePct: 4, Label: "Late"},
	}}
	service := newTestService(t, queries)
	rules, err := service.Rules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules.Discounts, 1)
	assert.Equal(t, "Early", rules.Discounts[0].Label)
	require.Len(t, rules.Interests, 1)
}

func TestRulesLoadedFromStore(t *testing.T) {
	queries := &fakeTierQueries{rows: []dbgen.RepaymentTier{
		{Kind: KindDiscount, StartDay: 0, EndDay: 10, RatePct: 3, Label: "Early"},
		{Kind: KindInterest, StartDay: 40, EndDay: 90, RatePct: 4, Label: "Late"},
	}}
	service := newTestService(t, queries)
	rules, err := service.Rules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules.Discounts, 1)
	require.Len(t, rules.Interests, 1)
	assert.Equal(t, "Early", rules.Discounts[0].Label)
	assert.Equal(t, 90, rules.Interests[0].EndDay)
}

func TestUpdateRulesPersistsSorted(t *testing.T) {
	queries := &fakeTierQueries{}
	service := newTestService(t, queries)

	err := service.UpdateRules(context.Background(), Rules{
		Discounts: []Tier{
			{StartDay: 16, EndDay: 30, RatePct: 2, Label: "Standard"},
			{StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"},
		},
	})
	require.NoError(t, err)
	require.Len(t, queries.rows, 2)
	assert.Equal(t, "Early Bird", queries.rows[0].Label)
	assert.Equal(t, int32(0), queries.rows[0].Position)
	assert.Equal(t, int32(1), queries.rows[1].Position)
}

func TestUpdateRulesRejectsInvalid(t *testing.T) {
	queries := &fakeTierQueries{rows: []dbgen.RepaymentTier{
		{Kind: KindDiscount, StartDay: 0, EndDay: 10, RatePct: 3},
	}}
	service := newTestService(t, queries)

	err := service.UpdateRules(context.Background(), Rules{
		Discounts: []Tier{{StartDay: 10, EndDay: 5, RatePct: 1}},
	})
	require.Error(t, err)
	// store untouched on validation failure
	require.Len(t, queries.rows, 1)
}

func TestPreviewRejectsNegativeSubtotal(t *testing.T) {
	service := newTestService(t, &fakeTierQueries{})
	_, err := service.Preview(context.Background(), -1, 50)
	require.Error(t, err)
}

func TestPreviewEndpoint(t *testing.T) {
	queries := &fakeTierQueries{rows: []dbgen.RepaymentTier{
		{Kind: KindDiscount, StartDay: 0, EndDay: 15, RatePct: 5, Label: "Early Bird"},
		{Kind: KindInterest, StartDay: 45, EndDay: 60, RatePct: 2, Label: "Late Fee"},
	}}
	handler := NewHandler(HandlerConfig{Service: newTestService(t, queries)})

	body, err := json.Marshal(map[string]any{"subtotal": 10000, "percent": 0})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/repayment/preview", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Preview(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(9500), resp.Data.Final)
	assert.Equal(t, "Early Bird", resp.Data.Label)
}

func TestPreviewEndpointAcceptsFractionalPercent(t *testing.T) {
	handler := NewHandler(HandlerConfig{Service: newTestService(t, &fakeTierQueries{})})

	body, err := json.Marshal(map[string]any{"subtotal": 10000, "percent": 7.5})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/repayment/preview", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Preview(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 7.5, resp.Data.Percent)
}

func TestPreviewEndpointValidatesPercent(t *testing.T) {
	handler := NewHandler(HandlerConfig{Service: newTestService(t, &fakeTierQueries{})})

	body, err := json.Marshal(map[string]any{"subtotal": 10000, "percent": 140})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/repayment/preview", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Preview(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateRulesEndpointRejectsOverlap(t *testing.T) {
	handler := NewHandler(HandlerConfig{Service: newTestService(t, &fakeTierQueries{})})

	body, err := json.Marshal(map[string]any{
		"discounts": []Tier{
			{StartDay: 0, EndDay: 20, RatePct: 5},
			{StartDay: 15, EndDay: 30, RatePct: 2},
		},
	})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/repayment/rules", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.UpdateRules(rr, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRulesEndpointIncludesSegments(t *testing.T) {
	handler := NewHandler(HandlerConfig{Service: newTestService(t, &fakeTierQueries{})})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/repayment/rules", nil)
	rr := httptest.NewRecorder()
	handler.Rules(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data struct {
			Rules    Rules     `json:"rules"`
			Segments []Segment `json:"segments"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, DefaultRules(), resp.Data.Rules)
	assert.Len(t, resp.Data.Segments, 5)
}
