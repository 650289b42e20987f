package enums

import "testing"

func TestOutboxDLQErrorReasonIsValid(t *testing.T) {
	for _, reason := range []OutboxDLQErrorReason{
		OutboxDLQReasonMaxAttempts,
		OutboxDLQReasonNonRetryable,
		OutboxDLQReasonDecodeFailure,
		OutboxDLQReasonUnroutable,
	} {
		if !reason.IsValid() {
			t.Fatalf("expected %q to be valid", reason)
		}
	}
	if OutboxDLQErrorReason("poison").IsValid() {
		t.Fatalf("expected unknown reason to be invalid")
	}
}

func TestParseOutboxDLQErrorReason(t *testing.T) {
	reason, err := ParseOutboxDLQErrorReason("non_retryable")
	if err != nil {
		t.Fatalf("parse returned error: %v", err)
	}
	if reason != OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected reason: %s", reason)
	}
	if _, err := ParseOutboxDLQErrorReason("bogus"); err == nil {
		t.Fatalf("expected error for unknown reason")
	}
}
