package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/tradelink-backend/api/middleware"
	"github.com/angelmondragon/tradelink-backend/api/responses"
	"github.com/angelmondragon/tradelink-backend/api/validators"
	"github.com/angelmondragon/tradelink-backend/internal/delivery"
	internalorders "github.com/angelmondragon/tradelink-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
)

type deliveredRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// RequestDeliveryCode sends the buyer a fresh handoff code, or reports the
// live one. The code never appears in the response.
func RequestDeliveryCode(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		orderID, err := validators.PathUUID(r, pathOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		issue, err := svc.RequestCode(r.Context(), orderID, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, issue)
	}
}

// MarkDelivered redeems the buyer's handoff code.
func MarkDelivered(svc delivery.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}

		orderID, err := validators.PathUUID(r, pathOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req deliveredRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Redeem(r.Context(), orderID, middleware.ActorFromContext(r.Context()), strings.TrimSpace(req.Code))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewView(order))
	}
}
