package gateway

import (
	"context"
	"fmt"
	"log/slog"
)

// RawCardAdapter implements the raw-card protocol: card number, expiry and
// CVC are posted directly alongside the checkout args in a single call that
// resolves immediately. No challenge phase exists for this variant.
type RawCardAdapter struct {
	backend Backend
	log     *slog.Logger
}

// NewRawCardAdapter creates the raw-card adapter.
// Panics on a nil backend to fail fast during initialization.
func NewRawCardAdapter(backend Backend, log *slog.Logger) *RawCardAdapter {
	if backend == nil {
		panic("gateway: Backend is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &RawCardAdapter{backend: backend, log: log}
}

func (a *RawCardAdapter) Kind() Kind { return KindRawCard }

func (a *RawCardAdapter) Submit(ctx context.Context, args Args) (Outcome, error) {
	if args.Card == nil {
		return Outcome{}, ErrMissingCard
	}

	resp, err := a.backend.SubmitCheckout(ctx, args.request(map[string]string{
		"card_number":    args.Card.Number,
		"card_exp_month": fmt.Sprintf("%02d", args.Card.ExpMonth),
		"card_exp_year":  fmt.Sprintf("%d", args.Card.ExpYear),
		"card_cvc":       args.Card.CVC,
	}))
	if err != nil {
		return Rejected(rejectionFromError(err)), nil
	}
	if !resp.Success {
		return Rejected(rejectionFromResponse(resp)), nil
	}
	return Completed(&resp.OrderData), nil
}

// Resolve is never part of the raw-card protocol.
func (a *RawCardAdapter) Resolve(ctx context.Context, handle PendingHandle, signal Signal) (Outcome, error) {
	return Outcome{}, ErrNotPending
}
