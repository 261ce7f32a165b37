package payments

import (
	"context"
	"net/http"

	"github.com/angelmondragon/tradelink-backend/api/middleware"
	"github.com/angelmondragon/tradelink-backend/api/responses"
	"github.com/angelmondragon/tradelink-backend/api/validators"
	internalorders "github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
)

// Confirmer turns a verified gateway callback into orders.
type Confirmer interface {
	Confirm(ctx context.Context, c payments.Confirmation) (*payments.Result, error)
}

// verifyRequest mirrors the gateway's success callback plus the cart it paid.
type verifyRequest struct {
	TxnID       string                    `json:"txnid" validate:"required,max=100"`
	Status      string                    `json:"status" validate:"required,max=32"`
	Amount      string                    `json:"amount" validate:"max=32"`
	ProductInfo string                    `json:"productinfo" validate:"max=500"`
	FirstName   string                    `json:"firstname" validate:"max=100"`
	Email       string                    `json:"email" validate:"omitempty,email"`
	Hash        string                    `json:"hash" validate:"max=256"`
	Address     string                    `json:"address" validate:"required,max=500"`
	Lines       []internalorders.CartLine `json:"lines" validate:"required,min=1,max=50,dive"`
}

// VerifyPayment turns a gateway-confirmed payment into orders. A repeated
// confirmation for the same transaction returns the orders it created the
// first time with 200 instead of 201.
func VerifyPayment(svc Confirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var req verifyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "txnid", req.TxnID)
		}

		// The gateway hash covers these fields verbatim.
		result, err := svc.Confirm(ctx, payments.Confirmation{
			BuyerID:     middleware.UserIDFromContext(ctx),
			Address:     validators.SanitizeString(req.Address, 500),
			Lines:       req.Lines,
			TxnID:       req.TxnID,
			Status:      req.Status,
			Amount:      req.Amount,
			ProductInfo: req.ProductInfo,
			FirstName:   req.FirstName,
			Email:       req.Email,
			Hash:        req.Hash,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.AlreadyProcessed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}
