package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/greenloop/greenloop-backend/api/responses"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
)

const (
	defaultRateLimit       = 100
	defaultRateLimitWindow = time.Minute
)

// RateLimit applies a per-user request ceiling on the authenticated API,
// falling back to the client IP when no user is in context.
func RateLimit() func(http.Handler) http.Handler {
	return httprate.Limit(
		defaultRateLimit,
		defaultRateLimitWindow,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return httprate.KeyByRealIP(r)
}

func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", strconv.Itoa(int(defaultRateLimitWindow.Seconds())))
	responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}
