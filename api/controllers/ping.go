package controllers

import (
	"net/http"

	"github.com/greenloop/greenloop-backend/api/middleware"
	"github.com/greenloop/greenloop-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return scopedPing("private")
}

func PartnerPing() http.HandlerFunc {
	return scopedPing("partner")
}

func AdminPing() http.HandlerFunc {
	return scopedPing("admin")
}

func scopedPing(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": scope, "status": "ok"}
		if role := middleware.RoleFromContext(r.Context()); role != "" {
			payload["role"] = role
		}
		responses.WriteSuccess(w, payload)
	}
}
