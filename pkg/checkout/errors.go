package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrSubmissionInFlight = errors.New("a submission attempt is already in flight")
	ErrSessionFinished    = errors.New("checkout session has finished")
	ErrUnknownMethod      = errors.New("unknown payment method")
	ErrUnexpectedOutcome  = errors.New("pending handle variant cannot be mapped to a status")
)

// InvalidTransitionError reports a request that the transition table forbids
// in the current status.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}
