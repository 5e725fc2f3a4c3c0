package gateway

import (
	"context"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// Kind enumerates the structural gateway protocol variants. Several backend
// gateway IDs can share one variant; see VariantFor.
type Kind string

const (
	KindTokenizingCard Kind = "tokenizing_card"
	KindRawCard        Kind = "raw_card"
	KindRedirect       Kind = "redirect"
	KindNativeSDK      Kind = "native_sdk"
	KindHosted         Kind = "hosted"
)

// variants maps backend gateway identifiers to their protocol variant.
var variants = map[string]Kind{
	"stripe":        KindTokenizingCard,
	"authorizenet":  KindRawCard,
	"authorize_net": KindRawCard,
	"paypal":        KindRedirect,
	"iyzipay":       KindRedirect,
	"payu":          KindRedirect,
	"razorpay":      KindNativeSDK,
	"woocommerce":   KindHosted,
}

// VariantFor resolves a backend gateway ID to its protocol variant.
func VariantFor(gatewayID string) (Kind, bool) {
	kind, ok := variants[gatewayID]
	return kind, ok
}

// CardDetails is the raw card input collected by the form for the two card
// variants. It never travels further than the tokenizer (tokenizing variant)
// or the single checkout POST (raw-card variant).
type CardDetails struct {
	Number     string
	ExpMonth   int64
	ExpYear    int64
	CVC        string
	HolderName string
}

// Args is the checkout submission input handed to an adapter. Billing is nil
// when the billing form is disabled for this purchase.
type Args struct {
	Intent         api.PurchaseIntent
	Method         api.Gateway
	CouponCode     string
	Billing        map[string]string
	Card           *CardDetails
	IdempotencyKey string
}

// request assembles the common checkout request; adapters add their
// gateway-specific fields via extra.
func (a Args) request(extra map[string]string) api.CheckoutRequest {
	return api.CheckoutRequest{
		Type:           a.Intent.Type,
		PlanID:         a.Intent.PlanID,
		GatewayID:      a.Method.ID,
		ListingID:      a.Intent.ListingID,
		CouponCode:     a.CouponCode,
		Billing:        a.Billing,
		Extra:          extra,
		IdempotencyKey: a.IdempotencyKey,
	}
}

// PendingHandle describes an attempt waiting on an out-of-band confirmation.
// Exactly the fields the variant's protocol needs are populated.
type PendingHandle struct {
	Kind    Kind
	OrderID int64

	// Redirect and hosted variants.
	RedirectURL string

	// Tokenizing-card challenge phase.
	ClientSecret string
	ConfirmURL   string

	// Native-SDK variant.
	Native    *api.NativeOrderParams
	VerifyURL string
}

// SignalType classifies a normalized out-of-band signal.
type SignalType string

const (
	// SignalSucceeded reports a matched completion marker or a passed
	// client-side challenge.
	SignalSucceeded SignalType = "succeeded"
	// SignalFailed reports a client-side failure (e.g. challenge error) with
	// an optional message.
	SignalFailed SignalType = "failed"
	// SignalCancelled reports a matched cancel marker or a user-closed
	// confirmation surface.
	SignalCancelled SignalType = "cancelled"
	// SignalDismissed reports a dismissed native SDK dialog.
	SignalDismissed SignalType = "dismissed"
	// SignalNativeCallback carries the native SDK completion payload.
	SignalNativeCallback SignalType = "native_callback"
)

// Signal is the normalized form of an out-of-band completion event, produced
// by the confirmation bridge and consumed by Adapter.Resolve.
type Signal struct {
	Type      SignalType
	Message   string
	PaymentID string
	Signature map[string]string
}

// Outcome is the terminal vocabulary of one submission attempt. Exactly one
// of the three constructors applies.
type Outcome struct {
	Order     *api.OrderData
	Handle    *PendingHandle
	Rejection *Rejection
}

// Completed builds the terminal success outcome.
func Completed(order *api.OrderData) Outcome {
	return Outcome{Order: order}
}

// Pending builds the outcome for an attempt awaiting out-of-band confirmation.
func Pending(handle PendingHandle) Outcome {
	return Outcome{Handle: &handle}
}

// Rejected builds the terminal failure outcome.
func Rejected(r Rejection) Outcome {
	return Outcome{Rejection: &r}
}

func (o Outcome) IsCompleted() bool { return o.Order != nil }
func (o Outcome) IsPending() bool   { return o.Handle != nil }
func (o Outcome) IsRejected() bool  { return o.Rejection != nil }

// Adapter is the per-variant gateway protocol implementation.
//
// Submit runs the checkout submission; the error return is reserved for
// programmer errors (nil dependencies, wrong variant); protocol failures of
// any kind resolve to a Rejected outcome. Resolve finalizes a pending attempt
// from a bridge signal, performing the confirm/verify round trip where the
// protocol requires one.
type Adapter interface {
	Kind() Kind
	Submit(ctx context.Context, args Args) (Outcome, error)
	Resolve(ctx context.Context, handle PendingHandle, signal Signal) (Outcome, error)
}

// Backend is the API surface the adapters consume; satisfied by *api.Client.
type Backend interface {
	SubmitCheckout(ctx context.Context, req api.CheckoutRequest) (*api.CheckoutResponse, error)
	ConfirmIntent(ctx context.Context, confirmURL string, orderID int64) (*api.OrderData, error)
	VerifyNativePayment(ctx context.Context, verifyURL string, req api.VerifyRequest) (*api.OrderData, error)
}
