package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/prices"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
)

// UpdatePriceRequest replaces the rate schedule for one waste type.
type UpdatePriceRequest struct {
	PricePerKg    decimal.Decimal `json:"price_per_kg" validate:"required"`
	PointsPerKg   int             `json:"points_per_kg" validate:"required,gt=0"`
	CO2SavedPerKg float64         `json:"co2_saved_per_kg" validate:"required,gt=0"`
}

// ListPrices returns the current rate schedule for every waste type.
func ListPrices(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prices service unavailable"))
			return
		}

		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"prices": rows})
	}
}

// AdminUpdatePrice upserts the rate schedule for a waste type.
func AdminUpdatePrice(svc prices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "prices service unavailable"))
			return
		}

		adminID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wasteType, err := enums.ParseWasteType(strings.TrimSpace(chi.URLParam(r, "wasteType")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid waste type"))
			return
		}

		var body UpdatePriceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := svc.Update(r.Context(), prices.UpdateInput{
			WasteType:     wasteType,
			PricePerKg:    body.PricePerKg,
			PointsPerKg:   body.PointsPerKg,
			CO2SavedPerKg: body.CO2SavedPerKg,
			UpdatedBy:     adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, price)
	}
}
