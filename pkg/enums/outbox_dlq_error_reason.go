package enums

import "fmt"

// OutboxDLQErrorReason classifies why an outbox event was dead-lettered.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts   OutboxDLQErrorReason = "max_attempts_exceeded"
	OutboxDLQReasonNonRetryable  OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonDecodeFailure OutboxDLQErrorReason = "decode_failure"
	OutboxDLQReasonUnroutable    OutboxDLQErrorReason = "unroutable_event"
)

var validDLQReasons = []OutboxDLQErrorReason{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
	OutboxDLQReasonDecodeFailure,
	OutboxDLQReasonUnroutable,
}

// IsValid reports whether the value is a known OutboxDLQErrorReason.
func (r OutboxDLQErrorReason) IsValid() bool {
	for _, candidate := range validDLQReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseOutboxDLQErrorReason converts raw input into an OutboxDLQErrorReason.
func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	for _, candidate := range validDLQReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dlq error reason %q", value)
}
