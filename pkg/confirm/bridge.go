package confirm

import (
	"log/slog"
	"strings"

	"github.com/dmitrymomot/checkoutkit/pkg/gateway"
)

// Completion markers matched as URL substrings; the first match wins.
const (
	markerRedirectSuccess = "rtcl_return=success"
	markerRedirectCancel  = "rtcl_return=cancel"
	markerHostedComplete  = "order-received"
)

// NavigationEvent is one navigation of the embedded web surface.
type NavigationEvent struct {
	URL          string
	LoadFinished bool
	CanGoBack    bool
}

// NativePayload is the synchronous callback payload of the native SDK flow.
type NativePayload struct {
	PaymentID string
	Signature map[string]string
}

// Option configures the bridge.
type Option func(*Bridge)

func WithLogger(log *slog.Logger) Option {
	return func(b *Bridge) {
		if log != nil {
			b.log = log
		}
	}
}

// Bridge watches the out-of-band channel of one pending attempt. Not
// goroutine-safe by contract: signals arrive on the UI event loop.
type Bridge struct {
	kind   gateway.Kind
	closed bool
	log    *slog.Logger
}

// NewBridge creates a bridge for the given pending variant.
func NewBridge(kind gateway.Kind, opts ...Option) *Bridge {
	b := &Bridge{kind: kind, log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Closed reports whether a signal has already been accepted.
func (b *Bridge) Closed() bool { return b.closed }

// ObserveNavigation inspects one navigation event for the variant's
// completion markers. Returns the normalized signal and true on the first
// match; every event after that is discarded.
func (b *Bridge) ObserveNavigation(event NavigationEvent) (gateway.Signal, bool) {
	if b.closed {
		return gateway.Signal{}, false
	}

	switch b.kind {
	case gateway.KindRedirect:
		if strings.Contains(event.URL, markerRedirectSuccess) {
			return b.accept(gateway.Signal{Type: gateway.SignalSucceeded})
		}
		if strings.Contains(event.URL, markerRedirectCancel) {
			return b.accept(gateway.Signal{Type: gateway.SignalCancelled})
		}
	case gateway.KindHosted:
		// All three conditions together; a redirect chain still in flight
		// can contain the marker without being the final landing page.
		if strings.Contains(event.URL, markerHostedComplete) && event.LoadFinished && event.CanGoBack {
			return b.accept(gateway.Signal{Type: gateway.SignalSucceeded})
		}
	}
	return gateway.Signal{}, false
}

// ObserveNativeResult forwards the single native SDK callback. The adapter
// enforces the payment id + signature precondition before any verification
// round trip.
func (b *Bridge) ObserveNativeResult(payload NativePayload) (gateway.Signal, bool) {
	if b.closed {
		return gateway.Signal{}, false
	}
	return b.accept(gateway.Signal{
		Type:      gateway.SignalNativeCallback,
		PaymentID: payload.PaymentID,
		Signature: payload.Signature,
	})
}

// ObserveChallengeResult reports the outcome of the client-side card
// challenge. A nil error means the challenge passed and the confirm round
// trip may run.
func (b *Bridge) ObserveChallengeResult(err error) (gateway.Signal, bool) {
	if b.closed {
		return gateway.Signal{}, false
	}
	if err != nil {
		return b.accept(gateway.Signal{Type: gateway.SignalFailed, Message: err.Error()})
	}
	return b.accept(gateway.Signal{Type: gateway.SignalSucceeded})
}

// Dismiss reports that the user closed the confirmation surface. Native SDK
// dialogs dismiss; every other surface cancels. Always resolves the attempt;
// a pending session is never left stuck.
func (b *Bridge) Dismiss() (gateway.Signal, bool) {
	if b.closed {
		return gateway.Signal{}, false
	}
	if b.kind == gateway.KindNativeSDK {
		return b.accept(gateway.Signal{Type: gateway.SignalDismissed})
	}
	return b.accept(gateway.Signal{Type: gateway.SignalCancelled})
}

func (b *Bridge) accept(signal gateway.Signal) (gateway.Signal, bool) {
	b.closed = true
	b.log.Debug("confirmation signal accepted",
		slog.String("variant", string(b.kind)),
		slog.String("signal", string(signal.Type)),
	)
	return signal, true
}
