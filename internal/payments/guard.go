package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/internal/users"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/db"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatusSuccess is the gateway status of a captured payment.
const StatusSuccess = "success"

// Confirmation is a gateway payment callback plus the cart it pays for.
type Confirmation struct {
	BuyerID     uuid.UUID
	Address     string
	Lines       []orders.CartLine
	TxnID       string
	Status      string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	Hash        string
}

// Result lists the orders for the payment. AlreadyProcessed is set when an
// earlier confirmation created them.
type Result struct {
	OrderIDs         []uuid.UUID `json:"order_ids"`
	AlreadyProcessed bool        `json:"already_processed"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GuardParams groups the guard collaborators.
type GuardParams struct {
	Tx      txRunner
	Orders  orders.Repository
	Users   users.Repository
	Builder *orders.Builder
	Gateway config.GatewayConfig
	Metrics *metrics.EngineMetrics
	Logger  *logger.Logger
}

// Guard turns a payment confirmation into orders at most once per
// (payment reference, buyer).
type Guard struct {
	tx      txRunner
	orders  orders.Repository
	users   users.Repository
	builder *orders.Builder
	gateway config.GatewayConfig
	metrics *metrics.EngineMetrics
	logg    *logger.Logger
}

// NewGuard validates and wires the payment guard.
func NewGuard(params GuardParams) (*Guard, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Builder == nil {
		return nil, fmt.Errorf("order builder required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Guard{
		tx:      params.Tx,
		orders:  params.Orders,
		users:   params.Users,
		builder: params.Builder,
		gateway: params.Gateway,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Confirm verifies the callback and creates the orders unless they exist.
// Concurrent confirmations for the same key serialize on the buyer row, so
// exactly one of them creates orders and the rest observe them.
func (g *Guard) Confirm(ctx context.Context, c Confirmation) (*Result, error) {
	// The gateway signs the raw reference; the trimmed one keys the orders.
	ref := strings.TrimSpace(c.TxnID)
	if c.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	ctx = g.logg.WithFields(ctx, map[string]any{
		"buyer_id": c.BuyerID.String(),
		"txn_id":   ref,
	})

	if !strings.EqualFold(strings.TrimSpace(c.Status), StatusSuccess) {
		g.metrics.Payment(metrics.PaymentRejected)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment was not successful").
			WithDetails(map[string]any{"status": c.Status})
	}
	if !validResponseHash(g.gateway.MerchantSalt, g.gateway.MerchantKey, c) {
		if g.gateway.EnforceHash {
			g.metrics.Payment(metrics.PaymentRejected)
			g.logg.Warn(ctx, "rejecting payment with invalid gateway hash")
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "payment signature invalid")
		}
		g.logg.Warn(ctx, "gateway hash mismatch, proceeding")
	}

	result := &Result{}
	err := g.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := g.users.WithTx(tx).LockByID(ctx, c.BuyerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "lock buyer")
		}

		existing, err := g.orders.WithTx(tx).LockByPaymentAndUser(ctx, ref, c.BuyerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStore, err, "check existing orders")
		}
		if len(existing) > 0 {
			result.OrderIDs = orderIDs(existing)
			result.AlreadyProcessed = true
			return nil
		}

		placed, err := g.builder.Place(ctx, tx, orders.PlaceInput{
			BuyerID:   c.BuyerID,
			Address:   c.Address,
			PaymentID: &ref,
			Status:    enums.OrderStatusConfirmed,
			Lines:     c.Lines,
		})
		if err != nil {
			return err
		}
		result.OrderIDs = orderIDs(placed)
		g.checkAmount(ctx, c.Amount, placed)
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			g.metrics.Payment(metrics.PaymentRejected)
		} else {
			g.metrics.Payment(metrics.PaymentFailed)
			g.logg.Error(ctx, "payment confirmation failed", err)
		}
		return nil, db.MapError(err, "confirm payment")
	}

	if result.AlreadyProcessed {
		g.metrics.Payment(metrics.PaymentDuplicate)
		g.logg.Info(ctx, "payment already processed")
	} else {
		g.metrics.Payment(metrics.PaymentCreated)
		g.logg.Info(g.logg.WithField(ctx, "orders", len(result.OrderIDs)), "payment confirmed")
	}
	return result, nil
}

func (g *Guard) checkAmount(ctx context.Context, amount string, placed []models.Order) {
	totals := make([]decimal.Decimal, 0, len(placed))
	for _, o := range placed {
		totals = append(totals, o.Total)
	}
	computed := money.Sum(totals...)
	paid, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil || !money.Round(paid).Equal(computed) {
		g.logg.Warn(g.logg.WithFields(ctx, map[string]any{
			"gateway_amount":  amount,
			"computed_amount": money.Format(computed),
		}), "gateway amount differs from order total")
	}
}

func orderIDs(rows []models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(rows))
	for _, o := range rows {
		ids = append(ids, o.ID)
	}
	return ids
}
