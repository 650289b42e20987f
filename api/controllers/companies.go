package controllers

import (
	"net/http"
	"strings"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/companies"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
)

// CreateCompanyRequest registers a recycling company in the directory.
type CreateCompanyRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Address     string   `json:"address" validate:"required"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	WasteTypes  []string `json:"waste_types" validate:"required,min=1"`
	LogoURL     *string  `json:"logo_url,omitempty"`
}

// SetCompanyActiveRequest toggles directory visibility.
type SetCompanyActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ListCompanies returns active recycling companies, optionally filtered by
// the waste type they accept.
func ListCompanies(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "companies service unavailable"))
			return
		}

		var filter *enums.WasteType
		if raw := strings.TrimSpace(r.URL.Query().Get("waste_type")); raw != "" {
			wasteType, err := enums.ParseWasteType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid waste_type filter"))
				return
			}
			filter = &wasteType
		}

		rows, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"companies": rows})
	}
}

// GetCompany returns one directory entry.
func GetCompany(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "companies service unavailable"))
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		company, err := svc.Get(r.Context(), companyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, company)
	}
}

// AdminCreateCompany adds a recycling company to the directory.
func AdminCreateCompany(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "companies service unavailable"))
			return
		}

		var body CreateCompanyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		wasteTypes := make([]enums.WasteType, 0, len(body.WasteTypes))
		for _, raw := range body.WasteTypes {
			wasteType, err := enums.ParseWasteType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid waste type"))
				return
			}
			wasteTypes = append(wasteTypes, wasteType)
		}

		company, err := svc.Create(r.Context(), companies.CreateInput{
			Name:        body.Name,
			Description: body.Description,
			Address:     body.Address,
			Latitude:    body.Latitude,
			Longitude:   body.Longitude,
			Phone:       body.Phone,
			Email:       body.Email,
			WasteTypes:  wasteTypes,
			LogoURL:     body.LogoURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, company)
	}
}

// AdminSetCompanyActive shows or hides a company in the directory.
func AdminSetCompanyActive(svc companies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "companies service unavailable"))
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body SetCompanyActiveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), companyID, *body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": *body.Active})
	}
}
