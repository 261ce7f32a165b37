package earnings

import (
	"net/http"
	"time"

	"github.com/angelmondragon/tradelink-backend/api/middleware"
	"github.com/angelmondragon/tradelink-backend/api/responses"
	"github.com/angelmondragon/tradelink-backend/api/validators"
	internalearnings "github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type settleRequest struct {
	EarningIDs []uuid.UUID `json:"earning_ids" validate:"required,min=1,max=500"`
	Notes      string      `json:"notes" validate:"max=1000"`
}

// earningView is the seller-facing shape of one earning row.
type earningView struct {
	ID                 uuid.UUID           `json:"id"`
	OrderID            uuid.UUID           `json:"order_id"`
	OrderItemID        uuid.UUID           `json:"order_item_id"`
	ProductID          uuid.UUID           `json:"product_id"`
	Quantity           int                 `json:"quantity"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	CommissionPercent  decimal.Decimal     `json:"commission_percent"`
	PlatformCommission decimal.Decimal     `json:"platform_commission"`
	SellerAmount       decimal.Decimal     `json:"seller_amount"`
	Status             enums.EarningStatus `json:"status"`
	SettledAt          *time.Time          `json:"settled_at,omitempty"`
	Notes              *string             `json:"notes,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

func newEarningView(e models.SellerEarning) earningView {
	return earningView{
		ID:                 e.ID,
		OrderID:            e.OrderID,
		OrderItemID:        e.OrderItemID,
		ProductID:          e.ProductID,
		Quantity:           e.Quantity,
		UnitPrice:          e.UnitPrice,
		Subtotal:           e.Subtotal,
		CommissionPercent:  e.CommissionPercent,
		PlatformCommission: e.PlatformCommission,
		SellerAmount:       e.SellerAmount,
		Status:             e.Status,
		SettledAt:          e.SettledAt,
		Notes:              e.Notes,
		CreatedAt:          e.CreatedAt,
	}
}

// List pages through the caller's own earnings, optionally filtered by
// ?status=.
func List(svc internalearnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		status, err := validators.ParseEarningStatus(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]earningView, 0, len(page.Items))
		for _, e := range page.Items {
			items = append(items, newEarningView(e))
		}
		responses.WriteSuccess(w, pagination.Page[earningView]{Items: items, NextCursor: page.NextCursor})
	}
}

func Summary(svc internalearnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		totals, err := svc.Summary(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, totals)
	}
}

// Settle marks pending earnings as paid out. Ids that are unknown or not
// pending come back as skipped.
func Settle(svc internalearnings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "earnings service unavailable"))
			return
		}

		var req settleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Settle(r.Context(), internalearnings.SettleInput{
			ActorRole:  middleware.RoleFromContext(r.Context()),
			EarningIDs: req.EarningIDs,
			Notes:      validators.SanitizeString(req.Notes, 1000),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
