package products

import (
	"context"

	"github.com/angelmondragon/tradelink-backend/internal/repo"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository covers the product reads and stock writes made by order flows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// FindForUpdate re-reads a product with a row lock for pricing and stock.
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error)
	// FindMirror returns ownerID's product sourced from sourceID, locked.
	FindMirror(ctx context.Context, ownerID, sourceID uuid.UUID) (*models.Product, error)
	RecordSale(ctx context.Context, id uuid.UUID, qty int) error
	AddStock(ctx context.Context, id uuid.UUID, qty int) error
}

type repository struct {
	repo.Base
}

// NewRepository returns a products repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.DB(ctx).Create(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.ForUpdate(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindMirror(ctx context.Context, ownerID, sourceID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.ForUpdate(ctx).
		Where("owner_id = ? AND source_product_id = ?", ownerID, sourceID).
		Order("created_at ASC").
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// RecordSale decrements stock, flooring at zero, and counts the units sold.
func (r *repository) RecordSale(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock": gorm.Expr("CASE WHEN stock > ? THEN stock - ? ELSE 0 END", qty, qty),
			"sold":  gorm.Expr("sold + ?", qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AddStock(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
