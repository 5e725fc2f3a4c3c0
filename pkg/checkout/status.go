package checkout

import "github.com/dmitrymomot/checkoutkit/pkg/gateway"

// Status is the session's tagged-union state. Every UI-facing flag derives
// from it plus at most one payload field.
type Status string

const (
	StatusIdle                   Status = "idle"
	StatusMethodSelected         Status = "method_selected"
	StatusValidating             Status = "validating"
	StatusSubmitting             Status = "submitting"
	StatusAwaitingChallenge      Status = "awaiting_challenge"
	StatusAwaitingRedirect       Status = "awaiting_redirect"
	StatusAwaitingNativeCallback Status = "awaiting_native_callback"
	StatusAwaitingHostedCheckout Status = "awaiting_hosted_checkout"
	StatusCompleted              Status = "completed"
	StatusRejected               Status = "rejected"
)

// Awaiting reports whether the session is parked on an out-of-band
// confirmation.
func (s Status) Awaiting() bool {
	switch s {
	case StatusAwaitingChallenge, StatusAwaitingRedirect,
		StatusAwaitingNativeCallback, StatusAwaitingHostedCheckout:
		return true
	}
	return false
}

// InFlight reports whether a submission attempt is active, which blocks a
// second Submit (double-submission hazard).
func (s Status) InFlight() bool {
	return s == StatusSubmitting || s.Awaiting()
}

// Terminal reports whether no further transitions are possible. Rejected is
// not terminal: the session re-enters from MethodSelected.
func (s Status) Terminal() bool {
	return s == StatusCompleted
}

// transitions is the allowed-transition table, keyed [from][to]. Nested maps
// keep the lookup O(1) and the table readable as a list of edges.
var transitions = map[Status]map[Status]struct{}{
	StatusIdle: {
		StatusMethodSelected: {},
	},
	StatusMethodSelected: {
		StatusMethodSelected: {}, // reselect
		StatusValidating:     {},
	},
	StatusValidating: {
		StatusSubmitting:     {},
		StatusMethodSelected: {}, // validation failure
	},
	StatusSubmitting: {
		StatusCompleted:              {},
		StatusRejected:               {},
		StatusAwaitingChallenge:      {},
		StatusAwaitingRedirect:       {},
		StatusAwaitingNativeCallback: {},
		StatusAwaitingHostedCheckout: {},
	},
	StatusAwaitingChallenge: {
		StatusCompleted:      {},
		StatusRejected:       {},
		StatusMethodSelected: {}, // reselect cancels the pending attempt
	},
	StatusAwaitingRedirect: {
		StatusCompleted:      {},
		StatusRejected:       {},
		StatusMethodSelected: {},
	},
	StatusAwaitingNativeCallback: {
		StatusCompleted:      {},
		StatusRejected:       {},
		StatusMethodSelected: {},
	},
	StatusAwaitingHostedCheckout: {
		StatusCompleted:      {},
		StatusRejected:       {},
		StatusMethodSelected: {},
	},
	StatusRejected: {
		StatusMethodSelected: {},
	},
	StatusCompleted: {},
}

func canTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// awaitStatus maps a pending handle's protocol variant to the Awaiting*
// status the session parks in.
var awaitStatus = map[gateway.Kind]Status{
	gateway.KindTokenizingCard: StatusAwaitingChallenge,
	gateway.KindRedirect:       StatusAwaitingRedirect,
	gateway.KindNativeSDK:      StatusAwaitingNativeCallback,
	gateway.KindHosted:         StatusAwaitingHostedCheckout,
}
