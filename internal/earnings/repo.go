package earnings

import (
	"context"
	"time"

	"github.com/angelmondragon/tradelink-backend/internal/repo"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists seller earnings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, earning *models.SellerEarning) error
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SellerEarning, error)
	Settle(ctx context.Context, ids []uuid.UUID, notes *string, at time.Time) (int64, error)
	CancelByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.EarningStatus, params pagination.Params) ([]models.SellerEarning, error)
	SummaryBySeller(ctx context.Context, sellerID uuid.UUID) ([]StatusTotal, error)
}

// StatusTotal aggregates a seller's earnings in one settlement status.
type StatusTotal struct {
	Status             enums.EarningStatus `json:"status"`
	Count              int64               `json:"count"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	PlatformCommission decimal.Decimal     `json:"platform_commission"`
	SellerAmount       decimal.Decimal     `json:"seller_amount"`
}

type repository struct {
	repo.Base
}

// NewRepository returns an earnings repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, earning *models.SellerEarning) error {
	return r.DB(ctx).Create(earning).Error
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.SellerEarning, error) {
	var rows []models.SellerEarning
	if len(ids) == 0 {
		return rows, nil
	}
	err := r.DB(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// Settle moves the pending rows among ids to settled. Rows in any other status
// are left untouched.
func (r *repository) Settle(ctx context.Context, ids []uuid.UUID, notes *string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	updates := map[string]any{
		"status":     enums.EarningStatusSettled,
		"settled_at": at.UTC(),
		"updated_at": at.UTC(),
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := r.DB(ctx).
		Model(&models.SellerEarning{}).
		Where("id IN ? AND status = ?", ids, enums.EarningStatusPending).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// CancelByOrder voids the still-pending earnings of a cancelled order.
// Settled rows are never reverted.
func (r *repository) CancelByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.SellerEarning{}).
		Where("order_id = ? AND status = ?", orderID, enums.EarningStatusPending).
		Update("status", enums.EarningStatusCancelled)
	return res.RowsAffected, res.Error
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.EarningStatus, params pagination.Params) ([]models.SellerEarning, error) {
	query := r.DB(ctx).Model(&models.SellerEarning{}).Where("seller_id = ?", sellerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	query, err := repo.Paginate(query, "seller_earnings", params)
	if err != nil {
		return nil, err
	}
	var rows []models.SellerEarning
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) SummaryBySeller(ctx context.Context, sellerID uuid.UUID) ([]StatusTotal, error) {
	var rows []models.SellerEarning
	if err := r.DB(ctx).
		Select("status", "subtotal", "platform_commission", "seller_amount").
		Where("seller_id = ?", sellerID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	// Summed in Go so numeric precision does not depend on the driver's
	// aggregate return type.
	byStatus := map[enums.EarningStatus]*StatusTotal{}
	order := []enums.EarningStatus{}
	for _, row := range rows {
		total, ok := byStatus[row.Status]
		if !ok {
			total = &StatusTotal{Status: row.Status}
			byStatus[row.Status] = total
			order = append(order, row.Status)
		}
		total.Count++
		total.Subtotal = total.Subtotal.Add(row.Subtotal)
		total.PlatformCommission = total.PlatformCommission.Add(row.PlatformCommission)
		total.SellerAmount = total.SellerAmount.Add(row.SellerAmount)
	}
	out := make([]StatusTotal, 0, len(order))
	for _, status := range order {
		out = append(out, *byStatus[status])
	}
	return out, nil
}
