package gateway

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// RedirectAdapter implements the server-redirect protocol: the checkout call
// returns a redirect URL the host renders in an embedded web surface, and the
// confirmation bridge watches its navigation events for the completion
// markers. No structured order payload follows the redirect; a matched
// success marker is the completion itself.
type RedirectAdapter struct {
	backend Backend
	log     *slog.Logger
}

// NewRedirectAdapter creates the redirect adapter.
// Panics on a nil backend to fail fast during initialization.
func NewRedirectAdapter(backend Backend, log *slog.Logger) *RedirectAdapter {
	if backend == nil {
		panic("gateway: Backend is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedirectAdapter{backend: backend, log: log}
}

func (a *RedirectAdapter) Kind() Kind { return KindRedirect }

func (a *RedirectAdapter) Submit(ctx context.Context, args Args) (Outcome, error) {
	resp, err := a.backend.SubmitCheckout(ctx, args.request(nil))
	if err != nil {
		return Rejected(rejectionFromError(err)), nil
	}
	if resp.Redirect == "" {
		if !resp.Success {
			return Rejected(rejectionFromResponse(resp)), nil
		}
		// Some accounts are configured to capture without a redirect leg.
		return Completed(&resp.OrderData), nil
	}

	a.log.Debug("redirect handoff", slog.Int64("order_id", resp.ID))
	return Pending(PendingHandle{
		Kind:        KindRedirect,
		OrderID:     resp.ID,
		RedirectURL: resp.Redirect,
	}), nil
}

func (a *RedirectAdapter) Resolve(ctx context.Context, handle PendingHandle, signal Signal) (Outcome, error) {
	switch signal.Type {
	case SignalSucceeded:
		return Completed(&api.OrderData{
			ID:     handle.OrderID,
			Method: string(KindRedirect),
			Status: "Processing",
		}), nil
	case SignalCancelled:
		return Rejected(Rejection{Reason: ReasonCancelled, Message: msgCancelled}), nil
	case SignalFailed:
		msg := signal.Message
		if msg == "" {
			msg = msgDeclined
		}
		return Rejected(Rejection{Reason: ReasonDeclined, Message: msg}), nil
	default:
		return Rejected(Rejection{Reason: ReasonDeclined, Message: msgDeclined}), nil
	}
}
