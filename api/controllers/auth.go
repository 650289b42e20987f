package controllers

import (
	"net/http"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/auth"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
)

// AuthLogin wires the customer login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return loginHandler(logg, func(r *http.Request, body auth.LoginRequest) (*auth.LoginResponse, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
		}
		return svc.Login(r.Context(), body)
	})
}

// PartnerAuthLogin serves the delivery partner portal. Accounts without the
// delivery_partner role are rejected with a 403.
func PartnerAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return loginHandler(logg, func(r *http.Request, body auth.LoginRequest) (*auth.LoginResponse, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
		}
		return svc.PartnerLogin(r.Context(), body)
	})
}

// AdminAuthLogin serves the admin portal with the same wrong-role rule.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return loginHandler(logg, func(r *http.Request, body auth.LoginRequest) (*auth.LoginResponse, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
		}
		return svc.AdminLogin(r.Context(), body)
	})
}

func loginHandler(logg *logger.Logger, login func(r *http.Request, body auth.LoginRequest) (*auth.LoginResponse, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := login(r, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-GL-Token", result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}
