package pickups

import (
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"

	"github.com/greenloop/greenloop-backend/pkg/enums"
)

// transitions enumerates every legal pickup status change. Anything not
// listed here is rejected before touching the database.
var transitions = map[enums.PickupStatus][]enums.PickupStatus{
	enums.PickupStatusPending: {
		enums.PickupStatusAssigned,
		enums.PickupStatusCancelled,
	},
	enums.PickupStatusAssigned: {
		enums.PickupStatusInProgress,
		enums.PickupStatusCancelled,
	},
	enums.PickupStatusInProgress: {
		enums.PickupStatusCompleted,
	},
	enums.PickupStatusCompleted: {},
	enums.PickupStatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to enums.PickupStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a state-conflict error for illegal moves.
func ValidateTransition(from, to enums.PickupStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown pickup status")
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "pickup cannot move from "+from.String()+" to "+to.String())
	}
	return nil
}
