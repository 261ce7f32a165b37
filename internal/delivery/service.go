package delivery

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/internal/users"
	"github.com/angelmondragon/tradelink-backend/pkg/db"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Failure reasons reported in error details.
const (
	ReasonWrongState      = "wrong_state"
	ReasonNoCodeIssued    = "no_code_issued"
	ReasonExpired         = "expired"
	ReasonMismatch        = "mismatch"
	ReasonTooManyAttempts = "too_many_attempts"
)

const (
	codeDigits = 6
	// DefaultCodeTTL is used when no TTL is configured.
	DefaultCodeTTL = 30 * time.Minute
	// DefaultMaxAttempts is used when no attempt cap is configured.
	DefaultMaxAttempts = 5
)

// Service issues and redeems the one-time codes that gate the final handoff
// of an order from courier to buyer.
type Service interface {
	RequestCode(ctx context.Context, orderID uuid.UUID, courier orders.Actor) (*CodeIssue, error)
	Redeem(ctx context.Context, orderID uuid.UUID, courier orders.Actor, code string) (*models.Order, error)
}

// CodeIssue reports the live code's expiry. The code itself only travels to
// the buyer.
type CodeIssue struct {
	OrderID   uuid.UUID `json:"order_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Reused    bool      `json:"reused"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups the delivery service collaborators.
type ServiceParams struct {
	Orders      orders.Repository
	Users       users.Repository
	Tx          txRunner
	Dispatcher  orders.Dispatcher
	TTL         time.Duration
	MaxAttempts int
	Metrics     *metrics.EngineMetrics
	Logger      *logger.Logger
}

type service struct {
	orders      orders.Repository
	users       users.Repository
	tx          txRunner
	dispatcher  orders.Dispatcher
	ttl         time.Duration
	maxAttempts int
	metrics     *metrics.EngineMetrics
	logg        *logger.Logger
	now         func() time.Time
	generate    func() (string, error)
}

// NewService builds the delivery code service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &service{
		orders:      params.Orders,
		users:       params.Users,
		tx:          params.Tx,
		dispatcher:  params.Dispatcher,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         time.Now,
		generate:    generateCode,
	}, nil
}

func (s *service) RequestCode(ctx context.Context, orderID uuid.UUID, courier orders.Actor) (*CodeIssue, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var (
		issue *CodeIssue
		buyer *models.User
		code  string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := s.loadForCourier(ctx, repo, orderID, courier)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if order.DeliveryOTP != nil && order.DeliveryOTPExpiresAt != nil && now.Before(*order.DeliveryOTPExpiresAt) {
			issue = &CodeIssue{OrderID: order.ID, ExpiresAt: *order.DeliveryOTPExpiresAt, Reused: true}
			return nil
		}

		code, err = s.generate()
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery code")
		}
		expires := now.Add(s.ttl)
		order.DeliveryOTP = &code
		order.DeliveryOTPExpiresAt = &expires
		order.DeliveryOTPAttempts = 0
		if err := repo.Save(ctx, order); err != nil {
			return db.MapError(err, "store delivery code")
		}
		issue = &CodeIssue{OrderID: order.ID, ExpiresAt: expires}

		buyer, err = s.users.WithTx(tx).FindByID(ctx, order.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return db.MapError(err, "load buyer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if issue.Reused {
		s.metrics.DeliveryCode(metrics.CodeReused)
		return issue, nil
	}
	s.metrics.DeliveryCode(metrics.CodeIssued)
	s.logg.Info(ctx, "delivery code issued")
	if buyer == nil {
		s.logg.Warn(ctx, "buyer missing, delivery code not sent")
		return issue, nil
	}
	s.dispatcher.Dispatch(ctx, notifications.Message{
		Kind:      enums.NotificationKindDeliveryOTP,
		Recipient: buyer.Email,
		Data: map[string]any{
			"order_id":   orderID.String(),
			"buyer_name": users.DisplayName(buyer),
			"code":       code,
			"expires_at": issue.ExpiresAt.Format(time.RFC3339),
		},
	})
	return issue, nil
}

func (s *service) Redeem(ctx context.Context, orderID uuid.UUID, courier orders.Actor, code string) (*models.Order, error) {
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	var (
		order   *models.Order
		buyer   *models.User
		failure error
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		var err error
		order, err = s.loadForCourier(ctx, repo, orderID, courier)
		if err != nil {
			return err
		}

		if order.DeliveryOTP == nil {
			s.metrics.DeliveryCode(metrics.CodeMissing)
			return codeConflict("no delivery code has been issued", ReasonNoCodeIssued)
		}
		now := s.now().UTC()
		if order.DeliveryOTPExpiresAt == nil || !now.Before(*order.DeliveryOTPExpiresAt) {
			// The cleared code must survive the failed redemption, so the
			// transaction commits and the error is returned afterwards.
			order.ClearDeliveryCode()
			if err := repo.Save(ctx, order); err != nil {
				return db.MapError(err, "clear expired delivery code")
			}
			s.metrics.DeliveryCode(metrics.CodeExpired)
			failure = codeConflict("delivery code has expired", ReasonExpired)
			return nil
		}
		if subtle.ConstantTimeCompare([]byte(*order.DeliveryOTP), []byte(code)) != 1 {
			// The attempt count must be committed for the cap to hold.
			order.DeliveryOTPAttempts++
			s.metrics.DeliveryCode(metrics.CodeMismatch)
			failure = codeConflict("delivery code does not match", ReasonMismatch)
			if order.DeliveryOTPAttempts >= s.maxAttempts {
				order.ClearDeliveryCode()
				s.metrics.DeliveryCode(metrics.CodeLocked)
				s.logg.Warn(ctx, "delivery code discarded after repeated mismatches")
				failure = codeConflict("too many wrong codes, request a new one", ReasonTooManyAttempts)
			}
			if err := repo.Save(ctx, order); err != nil {
				return db.MapError(err, "record delivery code attempt")
			}
			return nil
		}

		order.MarkDelivered(now)
		if err := repo.Save(ctx, order); err != nil {
			return db.MapError(err, "mark order delivered")
		}
		buyer, err = s.users.WithTx(tx).FindByID(ctx, order.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return db.MapError(err, "load buyer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}

	s.metrics.DeliveryCode(metrics.CodeRedeemed)
	s.metrics.Transition("tracking", string(order.TrackingStatus))
	s.logg.Info(ctx, "order delivered")
	if buyer != nil {
		s.dispatcher.Dispatch(ctx, notifications.Message{
			Kind:      enums.NotificationKindDeliveryConfirmation,
			Recipient: buyer.Email,
			Data: map[string]any{
				"order_id":     order.ID.String(),
				"buyer_name":   users.DisplayName(buyer),
				"delivered_at": order.DeliveredAt.Format(time.RFC3339),
			},
		})
	}
	return order, nil
}

// loadForCourier applies the guards shared by request and redeem: the caller
// is the assigned courier and the order is out for delivery.
func (s *service) loadForCourier(ctx context.Context, repo orders.Repository, orderID uuid.UUID, courier orders.Actor) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, db.MapError(err, "order not found")
	}
	if err := orders.Authorize(orders.ActionDeliveryCode, courier, orders.Facts(order, nil)); err != nil {
		return nil, err
	}
	if order.TrackingStatus != enums.TrackingStatusOutForDelivery || order.Status == enums.OrderStatusCancelled {
		return nil, codeConflict(
			fmt.Sprintf("order with tracking %s is not out for delivery", order.TrackingStatus),
			ReasonWrongState,
		)
	}
	return order, nil
}

func codeConflict(msg, reason string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg).WithReason(reason)
}

func generateCode() (string, error) {
	return security.NumericCode(codeDigits)
}
