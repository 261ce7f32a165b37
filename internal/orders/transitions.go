package orders

import (
	"fmt"

	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
)

// Reasons attached to state conflicts.
const (
	ReasonIllegalTransition = "illegal_transition"
	ReasonNotDispatchable   = "not_dispatchable"
	ReasonNotDelivered      = "not_delivered"
)

var statusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:      {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusFulfilled, enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusFulfilled: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered: {enums.OrderStatusCancelled},
}

var dispatchableStatuses = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusPaid,
	enums.OrderStatusConfirmed,
	enums.OrderStatusFulfilled,
}

// CanTransition reports whether a seller may move status from one value to
// another. Staying put is always allowed.
func CanTransition(from, to enums.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func checkTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", from, to)).
		WithReason(ReasonIllegalTransition)
}

// checkDispatchable guards the hand-over to a courier. Re-dispatching an
// order already out for delivery is allowed.
func checkDispatchable(order *models.Order) error {
	statusOK := false
	for _, s := range dispatchableStatuses {
		if order.Status == s {
			statusOK = true
			break
		}
	}
	trackingOK := order.TrackingStatus == enums.TrackingStatusPending ||
		order.TrackingStatus == enums.TrackingStatusOutForDelivery
	if statusOK && trackingOK {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("order in status %s with tracking %s cannot be dispatched", order.Status, order.TrackingStatus)).
		WithReason(ReasonNotDispatchable)
}
