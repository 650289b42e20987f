package enums

import "fmt"

// PickupStatus tracks the lifecycle of a waste pickup request.
type PickupStatus string

const (
	PickupStatusPending    PickupStatus = "pending"
	PickupStatusAssigned   PickupStatus = "assigned"
	PickupStatusInProgress PickupStatus = "in_progress"
	PickupStatusCompleted  PickupStatus = "completed"
	PickupStatusCancelled  PickupStatus = "cancelled"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusPending,
	PickupStatusAssigned,
	PickupStatusInProgress,
	PickupStatusCompleted,
	PickupStatusCancelled,
}

// String implements fmt.Stringer.
func (p PickupStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PickupStatus.
func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (p PickupStatus) IsTerminal() bool {
	return p == PickupStatusCompleted || p == PickupStatusCancelled
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}
