package orders

import (
	"testing"

	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	buyer := uuid.New()
	seller := uuid.New()
	courier := uuid.New()
	w2r := enums.DeliveryTypeWholesalerToRetailer
	facts := OrderFacts{BuyerID: buyer, SellerIDs: []uuid.UUID{seller}, CourierID: &courier, DeliveryType: &w2r}

	cases := []struct {
		name   string
		action Action
		actor  Actor
		facts  OrderFacts
		code   pkgerrors.Code
	}{
		{"seller updates", ActionUpdateStatus, Actor{seller, enums.UserRoleWholesaler}, facts, ""},
		{"other seller updates", ActionUpdateStatus, Actor{uuid.New(), enums.UserRoleWholesaler}, facts, pkgerrors.CodeForbidden},
		{"buyer updates", ActionUpdateStatus, Actor{buyer, enums.UserRoleRetailer}, facts, pkgerrors.CodeForbidden},
		{"seller with non seller role", ActionDispatch, Actor{seller, enums.UserRoleConsumer}, facts, pkgerrors.CodeForbidden},
		{"seller dispatches", ActionDispatch, Actor{seller, enums.UserRoleWholesaler}, facts, ""},
		{"retailer receives w2r", ActionReceive, Actor{buyer, enums.UserRoleRetailer}, facts, ""},
		{"consumer receives w2r", ActionReceive, Actor{buyer, enums.UserRoleConsumer}, facts, pkgerrors.CodeForbidden},
		{"stranger receives", ActionReceive, Actor{uuid.New(), enums.UserRoleRetailer}, facts, pkgerrors.CodeForbidden},
		{"untyped receive by consumer", ActionReceive, Actor{buyer, enums.UserRoleConsumer}, OrderFacts{BuyerID: buyer}, ""},
		{"untyped receive by courier role", ActionReceive, Actor{buyer, enums.UserRoleDelivery}, OrderFacts{BuyerID: buyer}, pkgerrors.CodeForbidden},
		{"assigned courier code", ActionDeliveryCode, Actor{courier, enums.UserRoleDelivery}, facts, ""},
		{"other courier code", ActionDeliveryCode, Actor{uuid.New(), enums.UserRoleDelivery}, facts, pkgerrors.CodeForbidden},
		{"admin views", ActionView, Actor{uuid.New(), enums.UserRoleAdmin}, facts, ""},
		{"courier views", ActionView, Actor{courier, enums.UserRoleDelivery}, facts, ""},
		{"stranger views", ActionView, Actor{uuid.New(), enums.UserRoleConsumer}, facts, pkgerrors.CodeForbidden},
		{"anonymous", ActionView, Actor{}, facts, pkgerrors.CodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.action, tc.actor, tc.facts)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.As(err).Code())
		})
	}
}

func TestAuthorizeCourierReason(t *testing.T) {
	err := Authorize(ActionDeliveryCode, Actor{uuid.New(), enums.UserRoleDelivery}, OrderFacts{BuyerID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, ReasonNotAssigned, pkgerrors.As(err).Reason())
}

func TestCanTransition(t *testing.T) {
	allowed := map[enums.OrderStatus][]enums.OrderStatus{
		enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		enums.OrderStatusPaid:      {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
		enums.OrderStatusConfirmed: {enums.OrderStatusFulfilled, enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		enums.OrderStatusFulfilled: {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
		enums.OrderStatusDelivered: {enums.OrderStatusCancelled},
		enums.OrderStatusCancelled: {},
	}
	all := []enums.OrderStatus{
		enums.OrderStatusPending, enums.OrderStatusPaid, enums.OrderStatusConfirmed,
		enums.OrderStatusFulfilled, enums.OrderStatusDelivered, enums.OrderStatusCancelled,
	}
	for _, from := range all {
		for _, to := range all {
			want := from == to
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}
