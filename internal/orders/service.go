package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/internal/users"
	"github.com/angelmondragon/tradelink-backend/pkg/db"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service defines order lifecycle operations.
type Service interface {
	PlaceDirect(ctx context.Context, input PlaceInput) ([]models.Order, error)
	UpdateStatus(ctx context.Context, input StatusInput) (*models.Order, error)
	MarkOutForDelivery(ctx context.Context, input DispatchInput) (*models.Order, error)
	MarkReceived(ctx context.Context, input ReceiptInput) (*Receipt, error)
	Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error)
	ListForBuyer(ctx context.Context, actor Actor, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForSeller(ctx context.Context, actor Actor, params pagination.Params) (*pagination.Page[models.Order], error)
	ListForCourier(ctx context.Context, actor Actor, params pagination.Params) (*pagination.Page[models.Order], error)
}

// StatusInput asks to move an order's commercial status.
type StatusInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Status  enums.OrderStatus
}

// DispatchInput hands an order to a courier. A nil CourierID keeps the
// current assignment.
type DispatchInput struct {
	OrderID   uuid.UUID
	Actor     Actor
	CourierID *uuid.UUID
}

// ReceiptInput is the buyer's acknowledgement of a delivered order.
type ReceiptInput struct {
	OrderID uuid.UUID
	Actor   Actor
}

// ServiceParams groups the order service collaborators.
type ServiceParams struct {
	Repo       Repository
	Users      users.Repository
	Earnings   earnings.Repository
	Builder    *Builder
	Mirror     *Mirror
	Tx         txRunner
	Dispatcher Dispatcher
	Metrics    *metrics.EngineMetrics
	Logger     *logger.Logger
}

type service struct {
	repo       Repository
	users      users.Repository
	earnings   earnings.Repository
	builder    *Builder
	mirror     *Mirror
	tx         txRunner
	dispatcher Dispatcher
	metrics    *metrics.EngineMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if params.Builder == nil {
		return nil, fmt.Errorf("order builder required")
	}
	if params.Mirror == nil {
		return nil, fmt.Errorf("retailer mirror required")
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
	return &service{
		repo:       params.Repo,
		users:      params.Users,
		earnings:   params.Earnings,
		builder:    params.Builder,
		mirror:     params.Mirror,
		tx:         params.Tx,
		dispatcher: params.Dispatcher,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        time.Now,
	}, nil
}

// Facts collects the ownership facts Authorize needs for order.
func Facts(order *models.Order, sellerIDs []uuid.UUID) OrderFacts {
	return OrderFacts{
		BuyerID:      order.UserID,
		SellerIDs:    sellerIDs,
		CourierID:    order.DeliveryPersonID,
		DeliveryType: order.DeliveryType,
	}
}

func (s *service) PlaceDirect(ctx context.Context, input PlaceInput) ([]models.Order, error) {
	input.Status = enums.OrderStatusPending
	input.PaymentID = nil

	var placed []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		placed, err = s.builder.Place(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, db.MapError(err, "place order")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"buyer_id": input.BuyerID.String(),
		"orders":   len(placed),
	}), "direct order placed")
	return placed, nil
}

func (s *service) UpdateStatus(ctx context.Context, input StatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var (
		order      *models.Order
		changed    bool
		stockBuyer bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindWithItems(ctx, input.OrderID)
		if err != nil {
			return db.MapError(err, "order not found")
		}
		sellers, err := repo.SellerIDs(ctx, order.ID)
		if err != nil {
			return db.MapError(err, "load order sellers")
		}
		if err := Authorize(ActionUpdateStatus, input.Actor, Facts(order, sellers)); err != nil {
			return err
		}
		if order.Status == input.Status {
			return nil
		}
		if err := checkTransition(order.Status, input.Status); err != nil {
			return err
		}

		order.Status = input.Status
		switch input.Status {
		case enums.OrderStatusDelivered:
			order.MarkDelivered(s.now())
			if input.Actor.Role == enums.UserRoleWholesaler {
				buyer, err := s.users.WithTx(tx).FindByID(ctx, order.UserID)
				if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
					return db.MapError(err, "load buyer")
				}
				stockBuyer = buyer != nil && buyer.Role == enums.UserRoleRetailer
			}
		case enums.OrderStatusCancelled:
			order.ClearDeliveryCode()
			if _, err := s.earnings.WithTx(tx).CancelByOrder(ctx, order.ID); err != nil {
				return db.MapError(err, "cancel seller earnings")
			}
		}
		if err := repo.Save(ctx, order); err != nil {
			return db.MapError(err, "update order")
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	s.metrics.Transition("status", string(order.Status))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   string(order.Status),
		"actor_id": input.Actor.ID.String(),
	})
	s.logg.Info(logCtx, "order status updated")

	if stockBuyer {
		if err := s.mirror.Apply(ctx, order); err != nil {
			s.logg.Error(logCtx, "failed to stock retailer catalog", err)
		}
	}
	return order, nil
}

func (s *service) MarkOutForDelivery(ctx context.Context, input DispatchInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		order *models.Order
		buyer *models.User
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		usersRepo := s.users.WithTx(tx)
		var err error
		order, err = repo.FindWithItems(ctx, input.OrderID)
		if err != nil {
			return db.MapError(err, "order not found")
		}
		sellers, err := repo.SellerIDs(ctx, order.ID)
		if err != nil {
			return db.MapError(err, "load order sellers")
		}
		if err := Authorize(ActionDispatch, input.Actor, Facts(order, sellers)); err != nil {
			return err
		}
		if err := checkDispatchable(order); err != nil {
			return err
		}
		deliveryType, ok := enums.DeliveryTypeForSeller(input.Actor.Role)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only sellers dispatch orders")
		}

		if input.CourierID != nil {
			courier, err := usersRepo.FindByID(ctx, *input.CourierID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "courier not found")
			}
			if err != nil {
				return db.MapError(err, "load courier")
			}
			if courier.Role != enums.UserRoleDelivery {
				return pkgerrors.New(pkgerrors.CodeValidation, "assigned user is not a courier")
			}
			if order.DeliveryPersonID != nil && *order.DeliveryPersonID != courier.ID {
				order.ClearDeliveryCode()
			}
			courierID := courier.ID
			order.DeliveryPersonID = &courierID
		}

		now := s.now().UTC()
		order.TrackingStatus = enums.TrackingStatusOutForDelivery
		order.OutForDeliveryAt = &now
		order.DeliveryType = &deliveryType
		if err := repo.Save(ctx, order); err != nil {
			return db.MapError(err, "update order")
		}

		buyer, err = usersRepo.FindByID(ctx, order.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return db.MapError(err, "load buyer")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition("tracking", string(order.TrackingStatus))
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"actor_id": input.Actor.ID.String(),
	})
	s.logg.Info(logCtx, "order out for delivery")

	if buyer == nil {
		s.logg.Warn(logCtx, "buyer missing, out-for-delivery notice not sent")
		return order, nil
	}
	data := map[string]any{
		"order_id":      order.ID.String(),
		"buyer_name":    users.DisplayName(buyer),
		"delivery_type": string(*order.DeliveryType),
	}
	if order.DeliveryPersonID != nil {
		data["courier_id"] = order.DeliveryPersonID.String()
	}
	s.dispatcher.Dispatch(ctx, notifications.Message{
		Kind:      enums.NotificationKindOutForDelivery,
		Recipient: buyer.Email,
		Data:      data,
	})
	return order, nil
}

func (s *service) MarkReceived(ctx context.Context, input ReceiptInput) (*Receipt, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, db.MapError(err, "order not found")
	}
	if err := Authorize(ActionReceive, input.Actor, Facts(order, nil)); err != nil {
		return nil, err
	}
	if order.TrackingStatus != enums.TrackingStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been delivered yet").
			WithReason(ReasonNotDelivered)
	}
	return &Receipt{
		OrderID:      order.ID,
		ReceivedBy:   input.Actor.ID,
		DeliveryType: order.DeliveryType,
		DeliveredAt:  order.DeliveredAt,
		ReceivedAt:   s.now().UTC(),
	}, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := s.repo.FindWithItems(ctx, orderID)
	if err != nil {
		return nil, db.MapError(err, "order not found")
	}
	sellers, err := s.repo.SellerIDs(ctx, order.ID)
	if err != nil {
		return nil, db.MapError(err, "load order sellers")
	}
	if err := Authorize(ActionView, actor, Facts(order, sellers)); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListForBuyer(ctx context.Context, actor Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListByBuyer(ctx, actor.ID, params)
	return page(rows, params, err)
}

func (s *service) ListForSeller(ctx context.Context, actor Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	if !actor.Role.IsSeller() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only sellers have sales")
	}
	rows, err := s.repo.ListBySeller(ctx, actor.ID, params)
	return page(rows, params, err)
}

func (s *service) ListForCourier(ctx context.Context, actor Actor, params pagination.Params) (*pagination.Page[models.Order], error) {
	if actor.Role != enums.UserRoleDelivery {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only couriers have assignments")
	}
	rows, err := s.repo.ListByCourier(ctx, actor.ID, params)
	return page(rows, params, err)
}

func page(rows []models.Order, params pagination.Params, err error) (*pagination.Page[models.Order], error) {
	if err != nil {
		return nil, db.MapError(err, "list orders")
	}
	p := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &p, nil
}
