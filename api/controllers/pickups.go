package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/pickups"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

const pickupDateLayout = "2006-01-02"

// CreatePickupRequest is the booking payload sent by the customer app.
type CreatePickupRequest struct {
	WasteType         string   `json:"waste_type" validate:"required"`
	Address           string   `json:"address" validate:"required"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	PickupDate        string   `json:"pickup_date" validate:"required"`
	PickupTimeSlot    *string  `json:"pickup_time_slot,omitempty"`
	Notes             *string  `json:"notes,omitempty"`
	ImageURL          *string  `json:"image_url,omitempty"`
	AIIdentifiedType  *string  `json:"ai_identified_type,omitempty"`
	EstimatedWeightKg *float64 `json:"estimated_weight_kg,omitempty"`
}

// CreatePickup books a pickup for the caller.
func CreatePickup(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CreatePickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wasteType, err := enums.ParseWasteType(body.WasteType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid waste type"))
			return
		}

		pickupDate, err := time.Parse(pickupDateLayout, body.PickupDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "pickup_date must be YYYY-MM-DD"))
			return
		}

		input := pickups.CreateInput{
			UserID:            userID,
			WasteType:         wasteType,
			Address:           body.Address,
			Latitude:          body.Latitude,
			Longitude:         body.Longitude,
			PickupDate:        pickupDate,
			PickupTimeSlot:    body.PickupTimeSlot,
			Notes:             body.Notes,
			ImageURL:          body.ImageURL,
			EstimatedWeightKg: body.EstimatedWeightKg,
		}
		if body.AIIdentifiedType != nil {
			identified, err := enums.ParseWasteType(*body.AIIdentifiedType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ai_identified_type"))
				return
			}
			input.AIIdentifiedType = &identified
		}

		pickup, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pickup)
	}
}

// ListPickups returns the caller's pickups, newest first.
func ListPickups(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, params, err := parsePickupListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), userID, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetPickup returns one of the caller's pickups with its assignment.
func GetPickup(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickupID, err := pathUUID(r, "pickupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickup, err := svc.GetForUser(r.Context(), userID, pickupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pickup)
	}
}

// CancelPickup cancels one of the caller's pending pickups.
func CancelPickup(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickupID, err := pathUUID(r, "pickupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), userID, pickupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

func parsePickupListQuery(r *http.Request) (pickups.ListFilters, pagination.Params, error) {
	var filters pickups.ListFilters
	var params pagination.Params

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParsePickupStatus(raw)
		if err != nil {
			return filters, params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
		from, err := time.Parse(pickupDateLayout, raw)
		if err != nil {
			return filters, params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_from must be YYYY-MM-DD")
		}
		filters.DateFrom = &from
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
		to, err := time.Parse(pickupDateLayout, raw)
		if err != nil {
			return filters, params, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date_to must be YYYY-MM-DD")
		}
		filters.DateTo = &to
	}

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return filters, params, err
	}
	params.Limit = limit
	params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

	return filters, params, nil
}
