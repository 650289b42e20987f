package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/dispatch"
	"github.com/greenloop/greenloop-backend/internal/pickups"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
)

// AssignPickupRequest names the partner who takes the stop.
type AssignPickupRequest struct {
	PartnerID string `json:"partner_id" validate:"required,uuid"`
}

// AdminCancelPickupRequest carries the operator's cancellation reason.
type AdminCancelPickupRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// PickupStats is the dispatch board headline numbers.
type PickupStats struct {
	Total          int64 `json:"total"`
	Pending        int64 `json:"pending"`
	Assigned       int64 `json:"assigned"`
	InProgress     int64 `json:"in_progress"`
	Completed      int64 `json:"completed"`
	Cancelled      int64 `json:"cancelled"`
	ActivePartners int   `json:"active_partners"`
}

// AdminListPickups returns every pickup, filterable by status and date.
func AdminListPickups(svc pickups.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		filters, params, err := parsePickupListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListAll(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// AdminPickupStats aggregates pickup counts and available partner headcount.
func AdminPickupStats(pickupSvc pickups.Service, dispatchSvc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pickupSvc == nil || dispatchSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		counts, err := pickupSvc.CountByStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		partners, err := dispatchSvc.ListEligiblePartners(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats := PickupStats{
			Pending:        counts[enums.PickupStatusPending],
			Assigned:       counts[enums.PickupStatusAssigned],
			InProgress:     counts[enums.PickupStatusInProgress],
			Completed:      counts[enums.PickupStatusCompleted],
			Cancelled:      counts[enums.PickupStatusCancelled],
			ActivePartners: len(partners),
		}
		for _, count := range counts {
			stats.Total += count
		}
		responses.WriteSuccess(w, stats)
	}
}

// AdminListPartners returns the partners currently accepting stops.
func AdminListPartners(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		partners, err := svc.ListEligiblePartners(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"partners": partners})
	}
}

// AdminAssignPickup hands a pending pickup to an available partner.
func AdminAssignPickup(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		adminID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickupID, err := pathUUID(r, "pickupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body AssignPickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		partnerID, err := uuid.Parse(body.PartnerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid partner_id"))
			return
		}

		assignment, err := svc.Assign(r.Context(), dispatch.AssignInput{
			PickupID:  pickupID,
			PartnerID: partnerID,
			AdminID:   adminID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

// AdminCancelPickup cancels a pending or assigned pickup with a reason.
func AdminCancelPickup(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		adminID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickupID, err := pathUUID(r, "pickupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body AdminCancelPickupRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.AdminCancel(r.Context(), dispatch.CancelInput{
			PickupID: pickupID,
			AdminID:  adminID,
			Reason:   body.Reason,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// AdminCompletePickup force-completes an in-progress pickup with a weigh-in.
func AdminCompletePickup(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		adminID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pickupID, err := pathUUID(r, "pickupId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body CompleteAssignmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accrual, err := svc.AdminComplete(r.Context(), adminID, pickupID, body.ActualWeightKg)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"status":  "completed",
			"accrual": accrual,
		})
	}
}
