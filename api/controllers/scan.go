package controllers

import (
	"net/http"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/classify"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
)

// AnalyzeScanRequest carries the camera capture as a base64 payload.
type AnalyzeScanRequest struct {
	ImageBase64 string `json:"image_base64" validate:"required"`
}

// AnalyzeScan runs the AI waste classifier over an uploaded image.
func AnalyzeScan(svc classify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "classifier unavailable"))
			return
		}

		var body AnalyzeScanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		analysis, err := svc.Analyze(r.Context(), classify.AnalyzeParams{ImageBase64: body.ImageBase64})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, analysis)
	}
}
