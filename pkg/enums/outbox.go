package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregatePickup     OutboxAggregateType = "pickup"
	AggregateAssignment OutboxAggregateType = "assignment"
	AggregateProfile    OutboxAggregateType = "profile"
	AggregateUser       OutboxAggregateType = "user"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregatePickup,
	AggregateAssignment,
	AggregateProfile,
	AggregateUser,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventPickupCreated   OutboxEventType = "pickup_created"
	EventPickupAssigned  OutboxEventType = "pickup_assigned"
	EventPickupStarted   OutboxEventType = "pickup_started"
	EventPickupCompleted OutboxEventType = "pickup_completed"
	EventPickupCancelled OutboxEventType = "pickup_cancelled"
	EventRewardsAccrued  OutboxEventType = "rewards_accrued"
	EventRoleGranted     OutboxEventType = "role_granted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventPickupCreated,
	EventPickupAssigned,
	EventPickupStarted,
	EventPickupCompleted,
	EventPickupCancelled,
	EventRewardsAccrued,
	EventRoleGranted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
