package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/internal/products"
	"github.com/angelmondragon/tradelink-backend/internal/users"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartLine is one product and quantity the buyer is purchasing.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// PlaceInput describes a purchase to turn into orders.
type PlaceInput struct {
	BuyerID   uuid.UUID
	Address   string
	PaymentID *string
	Status    enums.OrderStatus
	Lines     []CartLine
}

// Builder prices cart lines and persists one order per line together with
// its item, the seller earning and the stock movement.
type Builder struct {
	orders   Repository
	products products.Repository
	users    users.Repository
	earnings earnings.Repository
	calc     *earnings.Calculator
	logg     *logger.Logger
}

// BuilderParams groups the builder collaborators.
type BuilderParams struct {
	Orders     Repository
	Products   products.Repository
	Users      users.Repository
	Earnings   earnings.Repository
	Calculator *earnings.Calculator
	Logger     *logger.Logger
}

// NewBuilder validates and wires the order builder.
func NewBuilder(params BuilderParams) (*Builder, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Earnings == nil {
		return nil, fmt.Errorf("earnings repository required")
	}
	if params.Calculator == nil {
		return nil, fmt.Errorf("earnings calculator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Builder{
		orders:   params.Orders,
		products: params.Products,
		users:    params.Users,
		earnings: params.Earnings,
		calc:     params.Calculator,
		logg:     params.Logger,
	}, nil
}

// Place must run inside tx. Lines whose product no longer exists are skipped;
// when nothing is left to buy the whole purchase is rejected.
func (b *Builder) Place(ctx context.Context, tx *gorm.DB, input PlaceInput) ([]models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid initial order status")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil || line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each cart line needs a product and a positive quantity")
		}
	}

	ordersRepo := b.orders.WithTx(tx)
	productsRepo := b.products.WithTx(tx)
	usersRepo := b.users.WithTx(tx)
	earningsRepo := b.earnings.WithTx(tx)

	sellers := map[uuid.UUID]*models.User{}
	placed := make([]models.Order, 0, len(input.Lines))
	for _, line := range input.Lines {
		product, err := productsRepo.FindForUpdate(ctx, line.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			b.logg.Warn(b.logg.WithField(ctx, "product_id", line.ProductID.String()), "skipping cart line for missing product")
			continue
		}
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load product")
		}

		unit := money.UnitPrice(product.Price, product.Discount, product.Multiple)
		subtotal := money.Round(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))

		order := &models.Order{
			UserID:         input.BuyerID,
			Total:          subtotal,
			Address:        input.Address,
			PaymentID:      input.PaymentID,
			Status:         input.Status,
			TrackingStatus: enums.TrackingStatusPending,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create order")
		}
		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			Subtotal:  subtotal,
		}
		if err := ordersRepo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create order item")
		}

		seller, err := b.seller(ctx, usersRepo, sellers, product.OwnerID)
		if err != nil {
			return nil, err
		}
		earning, err := b.calc.Build(earnings.LineEarning{
			OrderID:     order.ID,
			OrderItemID: item.ID,
			ProductID:   product.ID,
			SellerID:    product.OwnerID,
			Quantity:    line.Quantity,
			UnitPrice:   unit,
			Subtotal:    subtotal,
		}, seller)
		if err != nil {
			return nil, err
		}
		if err := earningsRepo.Create(ctx, earning); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "create seller earning")
		}
		if err := productsRepo.RecordSale(ctx, product.ID, line.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "update product stock")
		}

		order.Items = []models.OrderItem{*item}
		placed = append(placed, *order)
	}

	if len(placed) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "none of the cart products are available")
	}
	return placed, nil
}

// seller resolves the product owner once per purchase. A missing seller row
// falls back to the default commission.
func (b *Builder) seller(ctx context.Context, repo users.Repository, cache map[uuid.UUID]*models.User, id uuid.UUID) (*models.User, error) {
	if u, ok := cache[id]; ok {
		return u, nil
	}
	u, err := repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b.logg.Warn(b.logg.WithField(ctx, "seller_id", id.String()), "seller not found, using default commission")
		u, err = nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStore, err, "load seller")
	}
	cache[id] = u
	return u, nil
}
