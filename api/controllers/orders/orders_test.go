package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/tradelink-backend/api/middleware"
	internalorders "github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrdersService struct {
	place      func(ctx context.Context, input internalorders.PlaceInput) ([]models.Order, error)
	status     func(ctx context.Context, input internalorders.StatusInput) (*models.Order, error)
	dispatch   func(ctx context.Context, input internalorders.DispatchInput) (*models.Order, error)
	received   func(ctx context.Context, input internalorders.ReceiptInput) (*internalorders.Receipt, error)
	get        func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error)
	listBuyer  func(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*pagination.Page[models.Order], error)
	listSeller func(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*pagination.Page[models.Order], error)
}

func (s *stubOrdersService) PlaceDirect(ctx context.Context, input internalorders.PlaceInput) ([]models.Order, error) {
	return s.place(ctx, input)
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, input internalorders.StatusInput) (*models.Order, error) {
	return s.status(ctx, input)
}

func (s *stubOrdersService) MarkOutForDelivery(ctx context.Context, input internalorders.DispatchInput) (*models.Order, error) {
	return s.dispatch(ctx, input)
}

func (s *stubOrdersService) MarkReceived(ctx context.Context, input internalorders.ReceiptInput) (*internalorders.Receipt, error) {
	return s.received(ctx, input)
}

func (s *stubOrdersService) Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*models.Order, error) {
	return s.get(ctx, orderID, actor)
}

func (s *stubOrdersService) ListForBuyer(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	return s.listBuyer(ctx, actor, params)
}

func (s *stubOrdersService) ListForSeller(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	return s.listSeller(ctx, actor, params)
}

func (s *stubOrdersService) ListForCourier(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	panic("not implemented")
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func serve(method, pattern, target, body string, handler http.HandlerFunc, userID uuid.UUID, role enums.UserRole) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req = req.WithContext(middleware.WithIdentity(req.Context(), userID, role))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sampleOrder(buyer uuid.UUID) models.Order {
	return models.Order{
		ID:             uuid.New(),
		UserID:         buyer,
		Total:          decimal.RequireFromString("20.00"),
		Address:        "1 Main St",
		Status:         enums.OrderStatusPending,
		TrackingStatus: enums.TrackingStatusPending,
	}
}

func TestPlaceDirectCreatesPendingOrders(t *testing.T) {
	buyer := uuid.New()
	productID := uuid.New()
	var got internalorders.PlaceInput
	svc := &stubOrdersService{place: func(ctx context.Context, input internalorders.PlaceInput) ([]models.Order, error) {
		got = input
		return []models.Order{sampleOrder(input.BuyerID)}, nil
	}}

	body := `{"address":"1 Main St","lines":[{"product_id":"` + productID.String() + `","quantity":2}]}`
	rec := serve(http.MethodPost, "/orders", "/orders", body, PlaceDirect(svc, logger.Nop()), buyer, enums.UserRoleRetailer)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, buyer, got.BuyerID)
	assert.Equal(t, "1 Main St", got.Address)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, productID, got.Lines[0].ProductID)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	var views []internalorders.OrderView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, enums.OrderStatusPending, views[0].Status)
}

func TestPlaceDirectValidatesLines(t *testing.T) {
	svc := &stubOrdersService{place: func(context.Context, internalorders.PlaceInput) ([]models.Order, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}

	cases := map[string]string{
		"empty lines":    `{"address":"x","lines":[]}`,
		"zero quantity":  `{"address":"x","lines":[{"product_id":"` + uuid.NewString() + `","quantity":0}]}`,
		"missing addr":   `{"lines":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`,
		"unknown field":  `{"address":"x","lines":[{"product_id":"` + uuid.NewString() + `","quantity":1}],"price":1}`,
		"malformed json": `{"address":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(http.MethodPost, "/orders", "/orders", body, PlaceDirect(svc, logger.Nop()), uuid.New(), enums.UserRoleConsumer)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), decode(t, rec).Error.Code)
		})
	}
}

func TestUpdateStatusPassesActorAndStatus(t *testing.T) {
	seller := uuid.New()
	order := sampleOrder(uuid.New())
	var got internalorders.StatusInput
	svc := &stubOrdersService{status: func(ctx context.Context, input internalorders.StatusInput) (*models.Order, error) {
		got = input
		order.Status = input.Status
		return &order, nil
	}}

	rec := serve(http.MethodPut, "/orders/{orderId}/status", "/orders/"+order.ID.String()+"/status", `{"status":"confirmed"}`,
		UpdateStatus(svc, logger.Nop()), seller, enums.UserRoleWholesaler)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.ID, got.OrderID)
	assert.Equal(t, internalorders.Actor{ID: seller, Role: enums.UserRoleWholesaler}, got.Actor)
	assert.Equal(t, enums.OrderStatusConfirmed, got.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	rec := serve(http.MethodPut, "/orders/{orderId}/status", "/orders/"+uuid.NewString()+"/status", `{"status":"shipped"}`,
		UpdateStatus(svc, logger.Nop()), uuid.New(), enums.UserRoleWholesaler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusRejectsBadPathID(t *testing.T) {
	svc := &stubOrdersService{}
	rec := serve(http.MethodPut, "/orders/{orderId}/status", "/orders/not-a-uuid/status", `{"status":"paid"}`,
		UpdateStatus(svc, logger.Nop()), uuid.New(), enums.UserRoleWholesaler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatusSurfacesStateConflict(t *testing.T) {
	svc := &stubOrdersService{status: func(context.Context, internalorders.StatusInput) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already cancelled")
	}}
	rec := serve(http.MethodPut, "/orders/{orderId}/status", "/orders/"+uuid.NewString()+"/status", `{"status":"paid"}`,
		UpdateStatus(svc, logger.Nop()), uuid.New(), enums.UserRoleRetailer)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), decode(t, rec).Error.Code)
}

func TestMarkOutForDeliveryAcceptsEmptyBody(t *testing.T) {
	var got internalorders.DispatchInput
	order := sampleOrder(uuid.New())
	svc := &stubOrdersService{dispatch: func(ctx context.Context, input internalorders.DispatchInput) (*models.Order, error) {
		got = input
		return &order, nil
	}}

	rec := serve(http.MethodPut, "/orders/{orderId}/out-for-delivery", "/orders/"+order.ID.String()+"/out-for-delivery", "",
		MarkOutForDelivery(svc, logger.Nop()), uuid.New(), enums.UserRoleWholesaler)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, got.CourierID)
}

func TestMarkOutForDeliveryAssignsCourier(t *testing.T) {
	courier := uuid.New()
	var got internalorders.DispatchInput
	order := sampleOrder(uuid.New())
	svc := &stubOrdersService{dispatch: func(ctx context.Context, input internalorders.DispatchInput) (*models.Order, error) {
		got = input
		return &order, nil
	}}

	rec := serve(http.MethodPut, "/orders/{orderId}/out-for-delivery", "/orders/"+order.ID.String()+"/out-for-delivery",
		`{"courier_id":"`+courier.String()+`"}`, MarkOutForDelivery(svc, logger.Nop()), uuid.New(), enums.UserRoleWholesaler)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, courier, *got.CourierID)
}

func TestMarkReceivedReturnsReceipt(t *testing.T) {
	buyer := uuid.New()
	orderID := uuid.New()
	svc := &stubOrdersService{received: func(ctx context.Context, input internalorders.ReceiptInput) (*internalorders.Receipt, error) {
		return &internalorders.Receipt{OrderID: input.OrderID, ReceivedBy: input.Actor.ID}, nil
	}}

	rec := serve(http.MethodPut, "/orders/{orderId}/mark-received", "/orders/"+orderID.String()+"/mark-received", "",
		MarkReceived(svc, logger.Nop()), buyer, enums.UserRoleConsumer)

	require.Equal(t, http.StatusOK, rec.Code)
	var receipt internalorders.Receipt
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &receipt))
	assert.Equal(t, orderID, receipt.OrderID)
	assert.Equal(t, buyer, receipt.ReceivedBy)
}

func TestDetailHidesForbiddenOrders(t *testing.T) {
	svc := &stubOrdersService{get: func(context.Context, uuid.UUID, internalorders.Actor) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not visible")
	}}
	rec := serve(http.MethodGet, "/orders/{orderId}", "/orders/"+uuid.NewString(), "",
		Detail(svc, logger.Nop()), uuid.New(), enums.UserRoleConsumer)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListPagesBuyerOrders(t *testing.T) {
	buyer := uuid.New()
	var gotParams pagination.Params
	svc := &stubOrdersService{listBuyer: func(ctx context.Context, actor internalorders.Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
		gotParams = params
		return &pagination.Page[models.Order]{Items: []models.Order{sampleOrder(actor.ID)}, NextCursor: "next"}, nil
	}}

	rec := serve(http.MethodGet, "/orders", "/orders?limit=5&cursor=abc", "", List(svc, logger.Nop()), buyer, enums.UserRoleRetailer)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pagination.Params{Limit: 5, Cursor: "abc"}, gotParams)
	var page pagination.Page[internalorders.OrderView]
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, buyer, page.Items[0].BuyerID)
	assert.Equal(t, "next", page.NextCursor)
}

func TestListSellingRejectsOversizedLimit(t *testing.T) {
	svc := &stubOrdersService{}
	rec := serve(http.MethodGet, "/orders/selling", "/orders/selling?limit=1000", "", ListSelling(svc, logger.Nop()), uuid.New(), enums.UserRoleWholesaler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNilServiceReportsInternalError(t *testing.T) {
	rec := serve(http.MethodGet, "/orders", "/orders", "", List(nil, logger.Nop()), uuid.New(), enums.UserRoleRetailer)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
