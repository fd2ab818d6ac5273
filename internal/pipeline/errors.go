package pipeline

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Every stage failure is classified by one of these
// sentinels and rendered into the state's error key; nothing escapes the
// executor as a panic or returned error.
var (
	// ErrInvalidInput marks an unparseable product identifier.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a product ID with no catalog record.
	ErrNotFound = errors.New("not found")

	// ErrCapabilityUnavailable marks a prediction dependency that was
	// never configured or failed to load.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrCapabilityFailure marks a prediction dependency that was invoked
	// but raised or returned malformed output.
	ErrCapabilityFailure = errors.New("capability failure")

	// ErrPreconditionMissing marks a stage that ran without a required
	// upstream key, either because an earlier stage failed or because the
	// stage wiring is defective.
	ErrPreconditionMissing = errors.New("precondition missing")
)

// stageError pairs a taxonomy sentinel with the human-readable message that
// lands in the state record. errors.Is matches the sentinel; Error() is the
// exact message callers see.
type stageError struct {
	kind error
	msg  string
}

func (e *stageError) Error() string { return e.msg }
func (e *stageError) Unwrap() error { return e.kind }

func failf(kind error, format string, args ...any) error {
	return &stageError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// errUpstreamFailure marks a precondition missing only because an earlier
// stage already recorded an error. The stage becomes a no-op so the root
// cause stays in the state's error key instead of being overwritten by a
// cascade of precondition messages.
var errUpstreamFailure = errors.New("upstream failure")

// errState renders a failure as the stage's only output. Previously written
// keys survive because the executor merges deltas instead of replacing the
// accumulated state. An upstream failure produces an empty delta: the stage
// still runs, but the first error wins.
func errState(err error) State {
	if errors.Is(err, errUpstreamFailure) {
		return State{}
	}
	return State{KeyError: err.Error()}
}

// require is the named precondition guard shared by all stages: every listed
// key must be present in the accumulated state. A fresh precondition error is
// reported only when no stage has failed yet; otherwise the missing key is
// the expected shadow of that earlier failure.
func require(s State, stage string, keys ...string) error {
	for _, k := range keys {
		if _, ok := s[k]; !ok {
			if _, failed := s.Err(); failed {
				return errUpstreamFailure
			}
			return failf(ErrPreconditionMissing, "Missing %s for %s stage", k, stage)
		}
	}
	return nil
}
