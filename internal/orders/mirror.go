package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/tradelink-backend/internal/products"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Mirror stocks a retailer's own catalog with the goods of a delivered
// wholesale order.
type Mirror struct {
	tx       txRunner
	products products.Repository
	logg     *logger.Logger
}

// NewMirror wires the retailer mirror.
func NewMirror(tx txRunner, productsRepo products.Repository, logg *logger.Logger) (*Mirror, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Mirror{tx: tx, products: productsRepo, logg: logg}, nil
}

// Apply adds quantity × multiple units of every wholesale product on order to
// the buyer's matching listing, creating the listing on first delivery.
func (m *Mirror) Apply(ctx context.Context, order *models.Order) error {
	return m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.products.WithTx(tx)
		for _, item := range order.Items {
			source, err := repo.FindByID(ctx, item.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				m.logg.Warn(m.logg.WithField(ctx, "product_id", item.ProductID.String()), "mirror source product missing")
				continue
			}
			if err != nil {
				return fmt.Errorf("load source product: %w", err)
			}
			units := item.Quantity * source.Multiple

			existing, err := repo.FindMirror(ctx, order.UserID, source.ID)
			switch {
			case err == nil:
				if err := repo.AddStock(ctx, existing.ID, units); err != nil {
					return fmt.Errorf("restock retailer product: %w", err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				sourceID := source.ID
				listing := &models.Product{
					OwnerID:         order.UserID,
					SourceProductID: &sourceID,
					Name:            source.Name,
					Description:     source.Description,
					Category:        source.Category,
					Price:           source.Price,
					Discount:        decimal.Zero,
					Multiple:        1,
					Stock:           units,
				}
				if err := repo.Create(ctx, listing); err != nil {
					return fmt.Errorf("create retailer product: %w", err)
				}
			default:
				return fmt.Errorf("find retailer product: %w", err)
			}
		}
		return nil
	})
}
