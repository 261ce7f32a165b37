package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/repo"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	repo.Base
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItem(ctx context.Context, item *models.OrderItem) error {
	return r.DB(ctx).Create(item).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByPaymentAndUser reads the orders already created for a payment with
// row locks held until the surrounding transaction ends.
func (r *repository) LockByPaymentAndUser(ctx context.Context, paymentID string, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.ForUpdate(ctx).
		Where("payment_id = ? AND user_id = ?", paymentID, userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Save writes every column of order. Items are left untouched.
func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.DB(ctx).Omit(clause.Associations).Save(order).Error
}

// SellerIDs returns the owners of the products on the order.
func (r *repository) SellerIDs(ctx context.Context, orderID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.OrderItem{}).
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID).
		Distinct().
		Pluck("products.owner_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, r.DB(ctx).Where("orders.user_id = ?", buyerID), params)
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	query := r.DB(ctx).Where(`EXISTS (
		SELECT 1 FROM order_items
		JOIN products ON products.id = order_items.product_id
		WHERE order_items.order_id = orders.id AND products.owner_id = ?)`, sellerID)
	return r.list(ctx, query, params)
}

func (r *repository) ListByCourier(ctx context.Context, courierID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	return r.list(ctx, r.DB(ctx).Where("orders.delivery_person_id = ?", courierID), params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, params pagination.Params) ([]models.Order, error) {
	query, err := repo.Paginate(query.Model(&models.Order{}).Preload("Items"), "orders", params)
	if err != nil {
		return nil, err
	}
	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ClearExpiredCodes drops handoff codes past their expiry on orders still out
// for delivery.
func (r *repository) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Order{}).
		Where("delivery_otp IS NOT NULL AND delivery_otp_expires_at < ? AND tracking_status = ?", now.UTC(), enums.TrackingStatusOutForDelivery).
		Updates(map[string]any{
			"delivery_otp":            nil,
			"delivery_otp_expires_at": nil,
			"delivery_otp_attempts":   0,
		})
	return res.RowsAffected, res.Error
}
