package orders

import (
	"time"

	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemView is the public shape of an order item.
type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderView is the public shape of an order. The handoff code itself is
// never exposed; only whether one is live.
type OrderView struct {
	ID                    uuid.UUID            `json:"id"`
	BuyerID               uuid.UUID            `json:"buyer_id"`
	Total                 decimal.Decimal      `json:"total"`
	Address               string               `json:"address"`
	PaymentID             *string              `json:"payment_id,omitempty"`
	Status                enums.OrderStatus    `json:"status"`
	TrackingStatus        enums.TrackingStatus `json:"tracking_status"`
	DeliveryType          *enums.DeliveryType  `json:"delivery_type,omitempty"`
	DeliveryPersonID      *uuid.UUID           `json:"delivery_person_id,omitempty"`
	DeliveryCodeExpiresAt *time.Time           `json:"delivery_code_expires_at,omitempty"`
	OutForDeliveryAt      *time.Time           `json:"out_for_delivery_at,omitempty"`
	DeliveredAt           *time.Time           `json:"delivered_at,omitempty"`
	Items                 []ItemView           `json:"items"`
	CreatedAt             time.Time            `json:"created_at"`
	UpdatedAt             time.Time            `json:"updated_at"`
}

// NewView maps an order model to its public view.
func NewView(o *models.Order) OrderView {
	items := make([]ItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return OrderView{
		ID:                    o.ID,
		BuyerID:               o.UserID,
		Total:                 o.Total,
		Address:               o.Address,
		PaymentID:             o.PaymentID,
		Status:                o.Status,
		TrackingStatus:        o.TrackingStatus,
		DeliveryType:          o.DeliveryType,
		DeliveryPersonID:      o.DeliveryPersonID,
		DeliveryCodeExpiresAt: o.DeliveryOTPExpiresAt,
		OutForDeliveryAt:      o.OutForDeliveryAt,
		DeliveredAt:           o.DeliveredAt,
		Items:                 items,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// NewViews maps a slice of orders.
func NewViews(rows []models.Order) []OrderView {
	out := make([]OrderView, 0, len(rows))
	for i := range rows {
		out = append(out, NewView(&rows[i]))
	}
	return out
}

// Receipt acknowledges that the buyer has the goods.
type Receipt struct {
	OrderID      uuid.UUID           `json:"order_id"`
	ReceivedBy   uuid.UUID           `json:"received_by"`
	DeliveryType *enums.DeliveryType `json:"delivery_type,omitempty"`
	DeliveredAt  *time.Time          `json:"delivered_at"`
	ReceivedAt   time.Time           `json:"received_at"`
}
