package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-mandi/internal/common"
	dbgen "github.com/noah-isme/backend-mandi/internal/db/gen"
)

const (
	ownerID = "11111111-2222-3333-4444-555555555555"
	otherID = "99999999-8888-7777-6666-555555555555"
)

type fakeOrderQueries struct {
	orders  map[string]dbgen.Order
	items   map[string][]dbgen.OrderItem
	updated []dbgen.UpdateOrderStatusParams
}

func (f *fakeOrderQueries) CountOrdersByUser(_ context.Context, userID pgtype.UUID) (int64, error) {
	var n int64
	for _, ord := range f.orders {
		if ord.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeOrderQueries) ListOrdersByUser(_ context.Context, arg dbgen.ListOrdersByUserParams) ([]dbgen.Order, error) {
	var out []dbgen.Order
	for _, ord := range f.orders {
		if ord.UserID == arg.UserID {
			out = append(out, ord)
		}
	}
	return out, nil
}

func (f *fakeOrderQueries) GetOrderByID(_ context.Context, id pgtype.UUID) (dbgen.Order, error) {
	for _, ord := range f.orders {
		if ord.ID == id {
			return ord, nil
		}
	}
	return dbgen.Order{}, pgx.ErrNoRows
}

func (f *fakeOrderQueries) ListOrderItems(_ context.Context, orderID pgtype.UUID) ([]dbgen.OrderItem, error) {
	return f.items[mustString(orderID)], nil
}

func (f *fakeOrderQueries) UpdateOrderStatus(_ context.Context, arg dbgen.UpdateOrderStatusParams) (int64, error) {
	f.updated = append(f.updated, arg)
	for _, ord := range f.orders {
		if ord.ID == arg.ID {
			return 1, nil
		}
	}
	return 0, nil
}

func mustUUID(t testing.TB, raw string) pgtype.UUID {
	id, err := toUUID(raw)
	if err != nil {
		t.Fatalf("parse uuid %s: %v", raw, err)
	}
	return id
}

func mustString(id pgtype.UUID) string {
	return uuidString(id)
}

func fixtureQueries(t testing.TB) (*fakeOrderQueries, string) {
	t.Helper()
	orderUUID := "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	queries := &fakeOrderQueries{
		orders: map[string]dbgen.Order{
			orderUUID: {
				ID:               mustUUID(t, orderUUID),
				UserID:           mustUUID(t, ownerID),
				Status:           "placed",
				Subtotal:         10000,
				DeliveryFee:      5000,
				Total:            15000,
				RepaymentPercent: 0,
				RepaymentKind:    "discount",
				RepaymentRate:    5,
				RepaymentDays:    8,
				FinalAmount:      14500,
				CreatedAt:        pgtype.Timestamptz{Time: time.Now(), Valid: true},
			},
		},
		items: map[string][]dbgen.OrderItem{
			orderUUID: {
				{
					ID:        mustUUID(t, "12121212-3434-5656-7878-909090909090"),
					OrderID:   mustUUID(t, orderUUID),
					ProductID: mustUUID(t, "fefefefe-0101-2323-4545-676767676767"),
					Name:      "Tomato",
					Selection: []byte(`{"grade":"A"}`),
					Qty:       2,
					UnitPrice: 5000,
					LineTotal: 10000,
				},
			},
		},
	}
	return queries, orderUUID
}

func doGet(h *Handler, orderID, userID, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID, nil)
	ctx := req.Context()
	if userID != "" {
		ctx = common.WithUserID(ctx, userID)
	}
	if role != "" {
		ctx = common.WithRole(ctx, role)
	}
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("orderId", orderID)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)

	rr := httptest.NewRecorder()
	h.Get(rr, req.WithContext(ctx))
	return rr
}

func TestGetReturnsOwnOrderWithItems(t *testing.T) {
	queries, orderUUID := fixtureQueries(t)
	h := &Handler{Q: queries}

	rr := doGet(h, orderUUID, ownerID, common.RoleUser)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Data orderView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, orderUUID, body.Data.ID)
	assert.Equal(t, int64(14500), body.Data.FinalAmount)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "Tomato", body.Data.Items[0].Name)
	assert.Equal(t, map[string]string{"grade": "A"}, body.Data.Items[0].Selection)
}

func TestGetHidesForeignOrder(t *testing.T) {
	queries, orderUUID := fixtureQueries(t)
	h := &Handler{Q: queries}

	rr := doGet(h, orderUUID, otherID, common.RoleUser)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetAdminSeesAnyOrder(t *testing.T) {
	queries, orderUUID := fixtureQueries(t)
	h := &Handler{Q: queries}

	rr := doGet(h, orderUUID, otherID, common.RoleAdmin)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestGetUnknownOrder(t *testing.T) {
	queries, _ := fixtureQueries(t)
	h := &Handler{Q: queries}

	rr := doGet(h, "aaaaaaaa-0000-0000-0000-000000000000", ownerID, common.RoleUser)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListReturnsTotalsHeader(t *testing.T) {
	queries, _ := fixtureQueries(t)
	h := &Handler{Q: queries}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(common.WithUserID(req.Context(), ownerID))
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-Total-Count"))
}

func TestConfirmOrder(t *testing.T) {
	queries, orderUUID := fixtureQueries(t)
	c := &Confirmer{Q: queries}

	require.NoError(t, c.ConfirmOrder(context.Background(), orderUUID))
	require.Len(t, queries.updated, 1)
	assert.Equal(t, "confirmed", queries.updated[0].Status)

	err := c.ConfirmOrder(context.Background(), "aaaaaaaa-0000-0000-0000-000000000000")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
