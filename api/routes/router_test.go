package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/tradelink-backend/api/controllers"
	internalearnings "github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/internal/payments"
	"github.com/angelmondragon/tradelink-backend/internal/verification"
	"github.com/angelmondragon/tradelink-backend/pkg/auth"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrders struct{}

func (stubOrders) PlaceDirect(ctx context.Context, input orders.PlaceInput) ([]models.Order, error) {
	return []models.Order{{ID: uuid.New(), UserID: input.BuyerID, Status: enums.OrderStatusPending}}, nil
}

func (stubOrders) UpdateStatus(ctx context.Context, input orders.StatusInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: input.Status}, nil
}

func (stubOrders) MarkOutForDelivery(ctx context.Context, input orders.DispatchInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, TrackingStatus: enums.TrackingStatusOutForDelivery}, nil
}

func (stubOrders) MarkReceived(ctx context.Context, input orders.ReceiptInput) (*orders.Receipt, error) {
	return &orders.Receipt{OrderID: input.OrderID, ReceivedBy: input.Actor.ID}, nil
}

func (stubOrders) Get(ctx context.Context, orderID uuid.UUID, actor orders.Actor) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrders) ListForBuyer(context.Context, orders.Actor, pagination.Params) (*pagination.Page[models.Order], error) {
	return &pagination.Page[models.Order]{Items: []models.Order{}}, nil
}

func (stubOrders) ListForSeller(context.Context, orders.Actor, pagination.Params) (*pagination.Page[models.Order], error) {
	return &pagination.Page[models.Order]{Items: []models.Order{}}, nil
}

func (stubOrders) ListForCourier(context.Context, orders.Actor, pagination.Params) (*pagination.Page[models.Order], error) {
	return &pagination.Page[models.Order]{Items: []models.Order{}}, nil
}

type stubEarnings struct{}

func (stubEarnings) Settle(ctx context.Context, input internalearnings.SettleInput) (*internalearnings.SettleResult, error) {
	return &internalearnings.SettleResult{Settled: int64(len(input.EarningIDs)), Skipped: []uuid.UUID{}}, nil
}

func (stubEarnings) List(context.Context, uuid.UUID, *enums.EarningStatus, pagination.Params) (*pagination.Page[models.SellerEarning], error) {
	return &pagination.Page[models.SellerEarning]{Items: []models.SellerEarning{}}, nil
}

func (stubEarnings) Summary(context.Context, uuid.UUID) ([]internalearnings.StatusTotal, error) {
	return []internalearnings.StatusTotal{}, nil
}

type stubVerification struct{}

func (stubVerification) Issue(ctx context.Context, email string) (*verification.Issued, error) {
	return &verification.Issued{Email: email, ExpiresAt: time.Now().Add(time.Minute)}, nil
}

func (stubVerification) Verify(context.Context, string, string) error {
	return nil
}

type stubConfirmer struct{}

func (stubConfirmer) Confirm(ctx context.Context, c payments.Confirmation) (*payments.Result, error) {
	return &payments.Result{OrderIDs: []uuid.UUID{uuid.New()}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: "*"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "tradelink", ExpirationMinutes: 10},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	return NewRouter(Dependencies{
		Config:       cfg,
		Logger:       logger.Nop(),
		Readiness:    []controllers.Dependency{{Name: "db", Pinger: stubPinger{}}},
		HTTPMetrics:  metrics.NewHTTPMetrics(reg),
		Gatherer:     reg,
		Orders:       stubOrders{},
		Payments:     stubConfirmer{},
		Earnings:     stubEarnings{},
		Verification: stubVerification{},
	}), cfg
}

func bearer(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router http.Handler, method, path, body, authz string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health/ready", "", "").Code)

	rec := do(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tradelink_http_requests_total")
}

func TestVerificationRoutesArePublic(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPost, "/api/v1/auth/verification-codes", `{"email":"a@example.com"}`, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/auth/verification-codes/verify", `{"email":"a@example.com","code":"123456"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/v1/orders", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodPost, "/api/v1/earnings/settle", `{"earning_ids":["`+uuid.NewString()+`"]}`, "").Code)
}

func TestRoleGuards(t *testing.T) {
	router, cfg := newTestRouter(t)
	orderPath := "/api/v1/orders/" + uuid.NewString()
	settleBody := `{"earning_ids":["` + uuid.NewString() + `"]}`
	placeBody := `{"address":"1 Main St","lines":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`

	cases := []struct {
		name   string
		method string
		path   string
		body   string
		role   enums.UserRole
		want   int
	}{
		{"consumer places order", http.MethodPost, "/api/v1/orders", placeBody, enums.UserRoleConsumer, http.StatusCreated},
		{"wholesaler cannot place order", http.MethodPost, "/api/v1/orders", placeBody, enums.UserRoleWholesaler, http.StatusForbidden},
		{"retailer updates status", http.MethodPut, orderPath + "/status", `{"status":"confirmed"}`, enums.UserRoleRetailer, http.StatusOK},
		{"consumer cannot update status", http.MethodPut, orderPath + "/status", `{"status":"confirmed"}`, enums.UserRoleConsumer, http.StatusForbidden},
		{"courier cannot dispatch", http.MethodPut, orderPath + "/out-for-delivery", "", enums.UserRoleDelivery, http.StatusForbidden},
		{"buyer marks received", http.MethodPut, orderPath + "/mark-received", "", enums.UserRoleConsumer, http.StatusOK},
		{"courier cannot mark received", http.MethodPut, orderPath + "/mark-received", "", enums.UserRoleDelivery, http.StatusForbidden},
		{"seller cannot redeem code", http.MethodPut, orderPath + "/mark-delivered", `{"code":"123456"}`, enums.UserRoleWholesaler, http.StatusForbidden},
		{"admin settles", http.MethodPost, "/api/v1/earnings/settle", settleBody, enums.UserRoleAdmin, http.StatusOK},
		{"seller cannot settle", http.MethodPost, "/api/v1/earnings/settle", settleBody, enums.UserRoleWholesaler, http.StatusForbidden},
		{"seller reads earnings", http.MethodGet, "/api/v1/earnings", "", enums.UserRoleWholesaler, http.StatusOK},
		{"consumer cannot read earnings", http.MethodGet, "/api/v1/earnings/summary", "", enums.UserRoleConsumer, http.StatusForbidden},
		{"courier lists assigned", http.MethodGet, "/api/v1/orders/assigned", "", enums.UserRoleDelivery, http.StatusOK},
		{"any role reads detail", http.MethodGet, orderPath, "", enums.UserRoleDelivery, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(router, tc.method, tc.path, tc.body, bearer(t, cfg, tc.role))
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestVerifyPaymentRoute(t *testing.T) {
	router, cfg := newTestRouter(t)
	body := `{"txnid":"T1","status":"success","amount":"1.00","address":"x","lines":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`

	rec := do(router, http.MethodPost, "/api/v1/payments/verify-payment", body, bearer(t, cfg, enums.UserRoleRetailer))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
