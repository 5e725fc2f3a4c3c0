package gateway

import (
	"context"
	"errors"
	"log/slog"

	stripe "github.com/stripe/stripe-go/v81"
	stripeclient "github.com/stripe/stripe-go/v81/client"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// Tokenizer turns raw card details into an opaque gateway payment-method
// token. The raw PAN goes to the card gateway only, never to the marketplace
// backend.
type Tokenizer interface {
	CreatePaymentMethod(ctx context.Context, card CardDetails, billing map[string]string) (string, error)
}

// stripeTokenizer implements Tokenizer on the official Stripe SDK.
type stripeTokenizer struct {
	sc *stripeclient.API
}

// NewStripeTokenizer creates a Tokenizer bound to the given publishable key.
func NewStripeTokenizer(key string) Tokenizer {
	sc := &stripeclient.API{}
	sc.Init(key, nil)
	return &stripeTokenizer{sc: sc}
}

func (t *stripeTokenizer) CreatePaymentMethod(ctx context.Context, card CardDetails, billing map[string]string) (string, error) {
	params := &stripe.PaymentMethodParams{
		Params: stripe.Params{Context: ctx},
		Type:   stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}
	if card.HolderName != "" || billing["billing_email"] != "" {
		params.BillingDetails = &stripe.PaymentMethodBillingDetailsParams{}
		if card.HolderName != "" {
			params.BillingDetails.Name = stripe.String(card.HolderName)
		}
		if email := billing["billing_email"]; email != "" {
			params.BillingDetails.Email = stripe.String(email)
		}
	}

	pm, err := t.sc.PaymentMethods.New(params)
	if err != nil {
		return "", err
	}
	return pm.ID, nil
}

// StripeCardAdapter implements the tokenizing-card protocol: client-side
// tokenization, checkout submission with the token, and, when the backend
// demands it, a 3-D Secure challenge phase finalized through the per-gateway
// confirm endpoint. The order is authoritative only after that confirm call.
type StripeCardAdapter struct {
	backend   Backend
	tokenizer Tokenizer
	log       *slog.Logger
}

// NewStripeCardAdapter creates the tokenizing-card adapter.
// Panics on nil dependencies to fail fast during initialization.
func NewStripeCardAdapter(backend Backend, tokenizer Tokenizer, log *slog.Logger) *StripeCardAdapter {
	if backend == nil {
		panic("gateway: Backend is required")
	}
	if tokenizer == nil {
		panic("gateway: Tokenizer is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &StripeCardAdapter{backend: backend, tokenizer: tokenizer, log: log}
}

func (a *StripeCardAdapter) Kind() Kind { return KindTokenizingCard }

func (a *StripeCardAdapter) Submit(ctx context.Context, args Args) (Outcome, error) {
	if args.Card == nil {
		return Outcome{}, ErrMissingCard
	}

	token, err := a.tokenizer.CreatePaymentMethod(ctx, *args.Card, args.Billing)
	if err != nil {
		return Rejected(stripeRejection(err)), nil
	}

	resp, err := a.backend.SubmitCheckout(ctx, args.request(map[string]string{
		"payment_method_id": token,
	}))
	if err != nil {
		return Rejected(rejectionFromError(err)), nil
	}

	if resp.RequiresAction && resp.ClientSecret != "" {
		a.log.Debug("card challenge required", slog.Int64("order_id", resp.ID))
		return Pending(PendingHandle{
			Kind:         KindTokenizingCard,
			OrderID:      resp.ID,
			ClientSecret: resp.ClientSecret,
			ConfirmURL:   args.Method.ConfirmURL,
		}), nil
	}

	if !resp.Success {
		return Rejected(rejectionFromResponse(resp)), nil
	}
	return Completed(&resp.OrderData), nil
}

// Resolve finalizes the challenge phase. A passed challenge still needs the
// confirm round trip before the order counts; a declined confirm keeps the
// partial order record the server returned.
func (a *StripeCardAdapter) Resolve(ctx context.Context, handle PendingHandle, signal Signal) (Outcome, error) {
	switch signal.Type {
	case SignalSucceeded:
		order, err := a.backend.ConfirmIntent(ctx, handle.ConfirmURL, handle.OrderID)
		if err != nil {
			if errors.Is(err, api.ErrConfirmDeclined) {
				rej := rejectionFromError(err)
				rej.PartialOrder = order
				return Rejected(rej), nil
			}
			return Rejected(rejectionFromError(err)), nil
		}
		return Completed(order), nil
	case SignalFailed:
		msg := signal.Message
		if msg == "" {
			msg = "Card authentication failed."
		}
		return Rejected(Rejection{Reason: ReasonDeclined, Message: msg}), nil
	case SignalCancelled:
		return Rejected(Rejection{Reason: ReasonCancelled, Message: msgCancelled}), nil
	default:
		return Rejected(Rejection{Reason: ReasonDeclined, Message: msgDeclined}), nil
	}
}

// stripeRejection extracts the most specific message the Stripe SDK offers:
// the human-readable Msg, then the error code, then the plain error text.
func stripeRejection(err error) Rejection {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		switch {
		case sErr.Msg != "":
			return Rejection{Reason: ReasonDeclined, Message: sErr.Msg}
		case sErr.Code != "":
			return Rejection{Reason: ReasonDeclined, Message: "Card was declined (" + string(sErr.Code) + ")."}
		}
	}
	return rejectionFromError(err)
}
