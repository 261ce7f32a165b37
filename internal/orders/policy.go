package orders

import (
	"slices"

	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/google/uuid"
)

// Action names an operation gated by Authorize.
type Action string

const (
	ActionUpdateStatus Action = "update_status"
	ActionDispatch     Action = "dispatch"
	ActionReceive      Action = "receive"
	ActionView         Action = "view"
	ActionDeliveryCode Action = "delivery_code"
)

// ReasonNotAssigned marks a courier acting on an order assigned to someone else.
const ReasonNotAssigned = "not_assigned"

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role enums.UserRole
}

// OrderFacts are the ownership facts of one order.
type OrderFacts struct {
	BuyerID      uuid.UUID
	SellerIDs    []uuid.UUID
	CourierID    *uuid.UUID
	DeliveryType *enums.DeliveryType
}

func (f OrderFacts) sellsOn(id uuid.UUID) bool {
	return slices.Contains(f.SellerIDs, id)
}

func (f OrderFacts) assignedTo(id uuid.UUID) bool {
	return f.CourierID != nil && *f.CourierID == id
}

// Authorize decides whether actor may perform action on an order.
func Authorize(action Action, actor Actor, facts OrderFacts) error {
	if actor.ID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	switch action {
	case ActionUpdateStatus, ActionDispatch:
		if actor.Role.IsSeller() && facts.sellsOn(actor.ID) {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller of this order can change it")

	case ActionReceive:
		if actor.ID != facts.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can acknowledge receipt")
		}
		if facts.DeliveryType == nil {
			if actor.Role.IsBuyer() {
				return nil
			}
		} else if actor.Role == facts.DeliveryType.Receiver() {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot acknowledge this delivery")

	case ActionDeliveryCode:
		if actor.Role == enums.UserRoleDelivery && facts.assignedTo(actor.ID) {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "order is not assigned to this courier").
			WithReason(ReasonNotAssigned)

	case ActionView:
		switch {
		case actor.Role == enums.UserRoleAdmin,
			actor.ID == facts.BuyerID,
			facts.sellsOn(actor.ID),
			facts.assignedTo(actor.ID):
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to caller")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "unknown action")
}
