package earnings

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/testutil"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedEarning(t *testing.T, db *gorm.DB, sellerID uuid.UUID, status enums.EarningStatus, subtotal string) *models.SellerEarning {
	t.Helper()
	calc, err := NewCalculator(dec("5"))
	require.NoError(t, err)
	earning, err := calc.Build(LineEarning{
		OrderID:     uuid.New(),
		OrderItemID: uuid.New(),
		ProductID:   uuid.New(),
		SellerID:    sellerID,
		Quantity:    1,
		UnitPrice:   dec(subtotal),
		Subtotal:    dec(subtotal),
	}, nil)
	require.NoError(t, err)
	earning.Status = status
	require.NoError(t, db.Create(earning).Error)
	return earning
}

func newTestService(t *testing.T, db *gorm.DB) *service {
	t.Helper()
	svc, err := NewService(NewRepository(db), logger.Nop(), metrics.NewEngineMetrics(nil))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return impl
}

func TestSettleMovesOnlyPending(t *testing.T) {
	db := testutil.NewDB(t)
	seller := uuid.New()
	pending := seedEarning(t, db, seller, enums.EarningStatusPending, "20.00")
	settled := seedEarning(t, db, seller, enums.EarningStatusSettled, "10.00")
	unknown := uuid.New()

	svc := newTestService(t, db)
	res, err := svc.Settle(context.Background(), SettleInput{
		ActorRole:  enums.UserRoleAdmin,
		EarningIDs: []uuid.UUID{pending.ID, settled.ID, unknown, pending.ID},
		Notes:      " march payout ",
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Settled)
	require.ElementsMatch(t, []uuid.UUID{settled.ID, unknown}, res.Skipped)

	reloaded := testutil.Reload[models.SellerEarning](t, db, pending.ID)
	require.Equal(t, enums.EarningStatusSettled, reloaded.Status)
	require.NotNil(t, reloaded.SettledAt)
	require.NotNil(t, reloaded.Notes)
	require.Equal(t, "march payout", *reloaded.Notes)
	require.True(t, reloaded.PlatformCommission.Add(reloaded.SellerAmount).Equal(reloaded.Subtotal))
}

func TestSettleRequiresAdmin(t *testing.T) {
	svc := newTestService(t, testutil.NewDB(t))
	_, err := svc.Settle(context.Background(), SettleInput{ActorRole: enums.UserRoleWholesaler, EarningIDs: []uuid.UUID{uuid.New()}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Settle(context.Background(), SettleInput{ActorRole: enums.UserRoleAdmin})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListAndSummary(t *testing.T) {
	db := testutil.NewDB(t)
	seller := uuid.New()
	seedEarning(t, db, seller, enums.EarningStatusPending, "20.00")
	seedEarning(t, db, seller, enums.EarningStatusPending, "10.00")
	seedEarning(t, db, seller, enums.EarningStatusSettled, "40.00")
	seedEarning(t, db, uuid.New(), enums.EarningStatusPending, "99.00")

	svc := newTestService(t, db)
	status := enums.EarningStatusPending
	page, err := svc.List(context.Background(), seller, &status, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotEmpty(t, page.NextCursor)

	all, err := svc.List(context.Background(), seller, nil, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, all.Items, 3)

	totals, err := svc.Summary(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	for _, total := range totals {
		switch total.Status {
		case enums.EarningStatusPending:
			require.EqualValues(t, 2, total.Count)
			require.True(t, total.Subtotal.Equal(dec("30.00")))
			require.True(t, total.SellerAmount.Equal(dec("28.50")))
		case enums.EarningStatusSettled:
			require.True(t, total.PlatformCommission.Equal(dec("2.00")))
		default:
			t.Fatalf("unexpected status %s", total.Status)
		}
	}
}
