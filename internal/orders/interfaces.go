package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItem(ctx context.Context, item *models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByPaymentAndUser(ctx context.Context, paymentID string, userID uuid.UUID) ([]models.Order, error)
	Save(ctx context.Context, order *models.Order) error
	SellerIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ListByCourier(ctx context.Context, courierID uuid.UUID, params pagination.Params) ([]models.Order, error)
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Dispatcher hands notifications off without blocking the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg notifications.Message)
}
