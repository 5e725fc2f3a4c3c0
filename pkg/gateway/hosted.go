package gateway

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// HostedAdapter implements the hosted full-checkout protocol: the entire
// payment UI is served by a third party. The adapter bypasses the local
// billing form and the checkout endpoint entirely. It builds the hosted page
// URL carrying the purchase identifiers and auth context, and completion is
// detected purely from the URL by the confirmation bridge. No structured
// order record exists until the user returns to the app.
type HostedAdapter struct {
	tokens api.TokenSource
	log    *slog.Logger
}

// NewHostedAdapter creates the hosted-checkout adapter.
// Panics on a nil token source to fail fast during initialization.
func NewHostedAdapter(tokens api.TokenSource, log *slog.Logger) *HostedAdapter {
	if tokens == nil {
		panic("gateway: TokenSource is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &HostedAdapter{tokens: tokens, log: log}
}

func (a *HostedAdapter) Kind() Kind { return KindHosted }

func (a *HostedAdapter) Submit(ctx context.Context, args Args) (Outcome, error) {
	if args.Method.CheckoutURL == "" {
		return Rejected(Rejection{
			Reason:  ReasonDeclined,
			Message: "This payment method is not configured.",
		}), nil
	}

	u, err := url.Parse(args.Method.CheckoutURL)
	if err != nil {
		return Rejected(Rejection{
			Reason:  ReasonDeclined,
			Message: "This payment method is not configured.",
		}), nil
	}

	token, err := a.tokens(ctx)
	if err != nil {
		return Rejected(rejectionFromError(err)), nil
	}

	q := u.Query()
	q.Set("type", string(args.Intent.Type))
	q.Set("plan_id", args.Intent.PlanID)
	if args.Intent.ListingID != "" {
		q.Set("listing_id", args.Intent.ListingID)
	}
	if args.CouponCode != "" {
		q.Set("coupon_code", args.CouponCode)
	}
	q.Set("app_token", token)
	u.RawQuery = q.Encode()

	a.log.Debug("hosted checkout handoff", slog.String("plan_id", args.Intent.PlanID))
	return Pending(PendingHandle{
		Kind:        KindHosted,
		RedirectURL: u.String(),
	}), nil
}

func (a *HostedAdapter) Resolve(ctx context.Context, handle PendingHandle, signal Signal) (Outcome, error) {
	switch signal.Type {
	case SignalSucceeded:
		// The hosted page never hands back a structured order; completion is
		// the URL marker itself. A synthetic record marks the purchase done
		// until the next profile/order refresh.
		return Completed(&api.OrderData{
			Method: string(KindHosted),
			Status: "Completed",
		}), nil
	case SignalCancelled:
		return Rejected(Rejection{Reason: ReasonCancelled, Message: msgCancelled}), nil
	default:
		return Rejected(Rejection{Reason: ReasonDeclined, Message: msgDeclined}), nil
	}
}
