package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/internal/products"
	"github.com/angelmondragon/tradelink-backend/internal/testutil"
	"github.com/angelmondragon/tradelink-backend/internal/users"
	"github.com/angelmondragon/tradelink-backend/pkg/db"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu   sync.Mutex
	msgs []notifications.Message
}

func (d *recordingDispatcher) Dispatch(_ context.Context, msg notifications.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
}

func (d *recordingDispatcher) sent() []notifications.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notifications.Message(nil), d.msgs...)
}

type harness struct {
	db         *gorm.DB
	svc        *service
	builder    *Builder
	dispatcher *recordingDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := testutil.NewDB(t)
	logg := logger.Nop()

	calc, err := earnings.NewCalculator(decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	builder, err := NewBuilder(BuilderParams{
		Orders:     NewRepository(conn),
		Products:   products.NewRepository(conn),
		Users:      users.NewRepository(conn),
		Earnings:   earnings.NewRepository(conn),
		Calculator: calc,
		Logger:     logg,
	})
	require.NoError(t, err)

	client := db.NewFromConn(conn)
	mirror, err := NewMirror(client, products.NewRepository(conn), logg)
	require.NoError(t, err)

	dispatcher := &recordingDispatcher{}
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		Users:      users.NewRepository(conn),
		Earnings:   earnings.NewRepository(conn),
		Builder:    builder,
		Mirror:     mirror,
		Tx:         client,
		Dispatcher: dispatcher,
		Metrics:    metrics.NewEngineMetrics(nil),
		Logger:     logg,
	})
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return fixedNow }

	return &harness{db: conn, svc: impl, builder: builder, dispatcher: dispatcher}
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// placeOne creates a single pending order for qty units of product.
func (h *harness) placeOne(t *testing.T, buyer *models.User, product *models.Product, qty int) *models.Order {
	t.Helper()
	placed, err := h.svc.PlaceDirect(context.Background(), PlaceInput{
		BuyerID: buyer.ID,
		Address: "12 Market St",
		Lines:   []CartLine{{ProductID: product.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	require.Len(t, placed, 1)
	return &placed[0]
}

func (h *harness) setStatus(t *testing.T, orderID uuid.UUID, status enums.OrderStatus) {
	t.Helper()
	require.NoError(t, h.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status).Error)
}
