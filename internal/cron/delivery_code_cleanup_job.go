package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DeliveryCodeCleanupJobParams wire the expired handoff code sweep.
type DeliveryCodeCleanupJobParams struct {
	Logger *logger.Logger
	DB     txRunner
	Orders orders.Repository
}

// NewDeliveryCodeCleanupJob clears handoff codes that expired on orders still
// out for delivery. Redemption checks expiry on its own; this only keeps
// stale codes from lingering on the row.
func NewDeliveryCodeCleanupJob(params DeliveryCodeCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &deliveryCodeCleanupJob{
		logg:   params.Logger,
		db:     params.DB,
		orders: params.Orders,
		now:    time.Now,
	}, nil
}

type deliveryCodeCleanupJob struct {
	logg   *logger.Logger
	db     txRunner
	orders orders.Repository
	now    func() time.Time
}

func (j *deliveryCodeCleanupJob) Name() string { return "delivery-code-cleanup" }

func (j *deliveryCodeCleanupJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var cleared int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.orders.WithTx(tx).ClearExpiredCodes(ctx, now)
		if err != nil {
			return err
		}
		cleared = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("delivery code cleanup: %w", err)
	}
	if cleared == 0 {
		return nil
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":        now,
		"codes_cleared": cleared,
	})
	j.logg.Info(logCtx, "expired delivery codes cleared")
	return nil
}
