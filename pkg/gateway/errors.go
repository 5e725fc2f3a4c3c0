package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

var (
	ErrMissingCard        = errors.New("card details are required for this payment method")
	ErrUnsupportedVariant = errors.New("no adapter registered for this payment method")
	ErrNotPending         = errors.New("adapter has no pending protocol phase to resolve")
)

// Reason classifies why an attempt was rejected. Cancel paths are normal
// terminal outcomes, not failures; timeout and network reasons mark the
// attempt as retryable with the same method.
type Reason string

const (
	ReasonDeclined  Reason = "declined"
	ReasonTimeout   Reason = "timeout"
	ReasonNetwork   Reason = "network"
	ReasonCancelled Reason = "cancelled"
	ReasonDismissed Reason = "dismissed"
)

// Rejection is the payload of a Rejected outcome. Message is always non-empty
// and user-displayable. PartialOrder carries whatever order record the server
// returned before declining, since the order may already exist in a pending
// state server-side.
type Rejection struct {
	Reason       Reason
	Message      string
	PartialOrder *api.OrderData
}

// Retryable reports whether the same method can simply be retried (transport
// problem) as opposed to the gateway having declined the payment.
func (r Rejection) Retryable() bool {
	return r.Reason == ReasonTimeout || r.Reason == ReasonNetwork
}

// Cancelled reports whether the rejection is a user-initiated cancel path
// that needs no error alert.
func (r Rejection) Cancelled() bool {
	return r.Reason == ReasonCancelled || r.Reason == ReasonDismissed
}

const (
	msgTimeout   = "The request timed out. Please check your connection and try again."
	msgNetwork   = "A network error occurred. Please check your connection and try again."
	msgCancelled = "Payment was cancelled."
	msgDismissed = "Payment was dismissed before completion."
	msgDeclined  = "The payment could not be processed."
)

// rejectionFromError classifies a transport or backend error into a
// Rejection, sourcing the message from the most specific field available:
// explicit backend message, then error code, then the transport problem,
// then generic fallback text.
func rejectionFromError(err error) Rejection {
	switch {
	case errors.Is(err, api.ErrRequestTimeout), errors.Is(err, context.DeadlineExceeded):
		return Rejection{Reason: ReasonTimeout, Message: msgTimeout}
	case errors.Is(err, api.ErrNetwork):
		return Rejection{Reason: ReasonNetwork, Message: msgNetwork}
	case errors.Is(err, context.Canceled):
		// An aborted call is a cancel path; the raw context error string is
		// not user-displayable.
		return Rejection{Reason: ReasonCancelled, Message: msgCancelled}
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Message != "":
			return Rejection{Reason: ReasonDeclined, Message: apiErr.Message}
		case apiErr.Code != "":
			return Rejection{Reason: ReasonDeclined, Message: fmt.Sprintf("Payment failed (%s).", apiErr.Code)}
		}
	}

	if err != nil && err.Error() != "" {
		return Rejection{Reason: ReasonDeclined, Message: err.Error()}
	}
	return Rejection{Reason: ReasonDeclined, Message: msgDeclined}
}

// rejectionFromResponse sources a decline message from a checkout response
// that reported failure, following the same fallback order.
func rejectionFromResponse(resp *api.CheckoutResponse) Rejection {
	switch {
	case resp.Message != "":
		return Rejection{Reason: ReasonDeclined, Message: resp.Message}
	case resp.ErrorCode != "":
		return Rejection{Reason: ReasonDeclined, Message: fmt.Sprintf("Payment failed (%s).", resp.ErrorCode)}
	default:
		return Rejection{Reason: ReasonDeclined, Message: msgDeclined}
	}
}
