package gateway

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// NativeSDKAdapter implements the native-SDK protocol: the checkout call
// returns SDK order parameters, the host opens the native checkout flow with
// them, and the gateway-issued payment id and signature from the callback
// must pass server verification before the order counts. A dismissed dialog
// is a normal cancel path, not a gateway failure.
type NativeSDKAdapter struct {
	backend Backend
	log     *slog.Logger
}

// NewNativeSDKAdapter creates the native-SDK adapter.
// Panics on a nil backend to fail fast during initialization.
func NewNativeSDKAdapter(backend Backend, log *slog.Logger) *NativeSDKAdapter {
	if backend == nil {
		panic("gateway: Backend is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &NativeSDKAdapter{backend: backend, log: log}
}

func (a *NativeSDKAdapter) Kind() Kind { return KindNativeSDK }

func (a *NativeSDKAdapter) Submit(ctx context.Context, args Args) (Outcome, error) {
	resp, err := a.backend.SubmitCheckout(ctx, args.request(nil))
	if err != nil {
		return Rejected(rejectionFromError(err)), nil
	}
	if resp.CheckoutData == nil {
		if !resp.Success {
			return Rejected(rejectionFromResponse(resp)), nil
		}
		return Completed(&resp.OrderData), nil
	}

	a.log.Debug("native sdk handoff",
		slog.Int64("order_id", resp.ID),
		slog.String("sdk_order_id", resp.CheckoutData.OrderID),
	)
	return Pending(PendingHandle{
		Kind:      KindNativeSDK,
		OrderID:   resp.ID,
		Native:    resp.CheckoutData,
		VerifyURL: args.Method.VerifyURL,
	}), nil
}

// Resolve finalizes the native callback. Both the payment id and the
// signature are the minimum precondition for attempting verification;
// absence of either rejects immediately without a network call.
func (a *NativeSDKAdapter) Resolve(ctx context.Context, handle PendingHandle, signal Signal) (Outcome, error) {
	switch signal.Type {
	case SignalNativeCallback:
		if signal.PaymentID == "" || len(signal.Signature) == 0 {
			return Rejected(Rejection{
				Reason:  ReasonDeclined,
				Message: "Payment callback was incomplete and could not be verified.",
			}), nil
		}
		order, err := a.backend.VerifyNativePayment(ctx, handle.VerifyURL, api.VerifyRequest{
			PaymentID: signal.PaymentID,
			Signature: signal.Signature,
		})
		if err != nil {
			return Rejected(rejectionFromError(err)), nil
		}
		return Completed(order), nil
	case SignalDismissed:
		return Rejected(Rejection{Reason: ReasonDismissed, Message: msgDismissed}), nil
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
