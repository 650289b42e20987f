package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/greenloop/greenloop-backend/api/responses"
	"github.com/greenloop/greenloop-backend/api/validators"
	"github.com/greenloop/greenloop-backend/internal/users"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/logger"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

type UserDirectory interface {
	ListWithRoles(ctx context.Context, limit, offset int) ([]users.UserWithRole, error)
}

type RoleGranter interface {
	Grant(ctx context.Context, adminID, userID uuid.UUID, role enums.AppRole) error
}

// GrantRoleRequest changes a user's role.
type GrantRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// AdminListUsers pages through users with their resolved roles.
func AdminListUsers(repo UserDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := repo.ListWithRoles(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"users": rows})
	}
}

// AdminGrantRole assigns a role to a user. Existing access tokens keep their
// old role claim until they expire; the admin surface re-resolves from the DB.
func AdminGrantRole(svc RoleGranter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "roles service unavailable"))
			return
		}

		adminID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body GrantRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseAppRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		if err := svc.Grant(r.Context(), adminID, userID, role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"role": string(role)})
	}
}
