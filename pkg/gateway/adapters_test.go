package gateway_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
	"github.com/dmitrymomot/checkoutkit/pkg/gateway"
)

func TestRawCardAdapter(t *testing.T) {
	t.Parallel()

	t.Run("posts card fields in a single call", func(t *testing.T) {
		t.Parallel()
		backend := new(mockBackend)
		backend.On("SubmitCheckout", mock.Anything, mock.MatchedBy(func(req api.CheckoutRequest) bool {
			return req.Extra["card_number"] == "370000000000002" &&
				req.Extra["card_exp_month"] == "03" &&
				req.Extra["card_exp_year"] == "2031" &&
				req.Extra["card_cvc"] == "1234"
		})).Return(&api.CheckoutResponse{
			OrderData: api.OrderData{ID: 5, Status: "Completed"},
			Success:   true,
		}, nil)

		adapter := gateway.NewRawCardAdapter(backend, nil)
		args := testArgs(api.Gateway{ID: "authorizenet"})
		args.Card = &gateway.CardDetails{Number: "370000000000002", ExpMonth: 3, ExpYear: 2031, CVC: "1234"}

		outcome, err := adapter.Submit(context.Background(), args)
		require.NoError(t, err)
		require.True(t, outcome.IsCompleted())
		assert.EqualValues(t, 5, outcome.Order.ID)
	})

	t.Run("decline resolves immediately with gateway message", func(t *testing.T) {
		t.Parallel()
		backend := new(mockBackend)
		backend.On("SubmitCheckout", mock.Anything, mock.Anything).Return(&api.CheckoutResponse{
			Success: false,
			Message: "This transaction has been declined.",
		}, nil)

		adapter := gateway.NewRawCardAdapter(backend, nil)
		args := testArgs(api.Gateway{ID: "authorizenet"})
		args.Card = &gateway.CardDetails{Number: "4111111111111111", ExpMonth: 1, ExpYear: 2030, CVC: "111"}

		outcome, err := adapter.Submit(context.Background(), args)
		require.NoError(t, err)
		require.True(t, outcome.IsRejected())
		assert.Equal(t, "This transaction has been declined.", outcome.Rejection.Message)
	})

	t.Run("has no pending phase", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewRawCardAdapter(new(mockBackend), nil)
		_, err := adapter.Resolve(context.Background(), gateway.PendingHandle{}, gateway.Signal{})
		assert.ErrorIs(t, err, gateway.ErrNotPending)
	})
}

func TestRedirectAdapter(t *testing.T) {
	t.Parallel()

	t.Run("hands off to webview with redirect URL", func(t *testing.T) {
		t.Parallel()
		backend := new(mockBackend)
		backend.On("SubmitCheckout", mock.Anything, mock.Anything).Return(&api.CheckoutResponse{
			OrderData: api.OrderData{ID: 8},
			Redirect:  "https://pay.example.com/session/1",
		}, nil)

		adapter := gateway.NewRedirectAdapter(backend, nil)
		outcome, err := adapter.Submit(context.Background(), testArgs(api.Gateway{ID: "paypal"}))
		require.NoError(t, err)
		require.True(t, outcome.IsPending())
		assert.Equal(t, "https://pay.example.com/session/1", outcome.Handle.RedirectURL)
		assert.EqualValues(t, 8, outcome.Handle.OrderID)
	})

	t.Run("success marker completes with synthetic order", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewRedirectAdapter(new(mockBackend), nil)
		outcome, err := adapter.Resolve(context.Background(),
			gateway.PendingHandle{Kind: gateway.KindRedirect, OrderID: 8},
			gateway.Signal{Type: gateway.SignalSucceeded},
		)
		require.NoError(t, err)
		require.True(t, outcome.IsCompleted())
		assert.EqualValues(t, 8, outcome.Order.ID)
		assert.Equal(t, "Processing", outcome.Order.Status)
	})

	t.Run("cancel marker is a cancel path", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewRedirectAdapter(new(mockBackend), nil)
		outcome, err := adapter.Resolve(context.Background(),
			gateway.PendingHandle{Kind: gateway.KindRedirect},
			gateway.Signal{Type: gateway.SignalCancelled},
		)
		require.NoError(t, err)
		require.True(t, outcome.IsRejected())
		assert.True(t, outcome.Rejection.Cancelled())
	})
}

func TestNativeSDKAdapter(t *testing.T) {
	t.Parallel()

	method := api.Gateway{ID: "razorpay", VerifyURL: "https://example.com/verify"}

	t.Run("hands off sdk order params", func(t *testing.T) {
		t.Parallel()
		backend := new(mockBackend)
		backend.On("SubmitCheckout", mock.Anything, mock.Anything).Return(&api.CheckoutResponse{
			OrderData:    api.OrderData{ID: 9},
			CheckoutData: &api.NativeOrderParams{Key: "rzp_test", OrderID: "order_1", Amount: "10000"},
		}, nil)

		adapter := gateway.NewNativeSDKAdapter(backend, nil)
		outcome, err := adapter.Submit(context.Background(), testArgs(method))
		require.NoError(t, err)
		require.True(t, outcome.IsPending())
		assert.Equal(t, "order_1", outcome.Handle.Native.OrderID)
		assert.Equal(t, "https://example.com/verify", outcome.Handle.VerifyURL)
	})

	t.Run("verified callback completes", func(t *testing.T) {
		t.Parallel()
		backend := new(mockBackend)
		backend.On("VerifyNativePayment", mock.Anything, "https://example.com/verify", api.VerifyRequest{
			PaymentID: "pay_1",
			Signature: map[string]string{"razorpay_signature": "sig_1"},
		}).Return(&api.OrderData{ID: 9, Status: "Completed"}, nil)

		adapter := gateway.NewNativeSDKAdapter(backend, nil)
		outcome, err := adapter.Resolve(context.Background(),
			gateway.PendingHandle{Kind: gateway.KindNativeSDK, OrderID: 9, VerifyURL: "https://example.com/verify"},
			gateway.Signal{
				Type:      gateway.SignalNativeCallback,
				PaymentID: "pay_1",
				Signature: map[string]string{"razorpay_signature": "sig_1"},
			},
		)
		require.NoError(t, err)
		require.True(t, outcome.IsCompleted())
		assert.EqualValues(t, 9, outcome.Order.ID)
	})

	t.Run("missing signature rejects without network call", func(t *testing.T) {
		t.Parallel()
		backend := new(mockBackend)
		adapter := gateway.NewNativeSDKAdapter(backend, nil)

		outcome, err := adapter.Resolve(context.Background(),
			gateway.PendingHandle{Kind: gateway.KindNativeSDK, VerifyURL: "https://example.com/verify"},
			gateway.Signal{Type: gateway.SignalNativeCallback, PaymentID: "pay_1"},
		)
		require.NoError(t, err)
		require.True(t, outcome.IsRejected())
		assert.Equal(t, gateway.ReasonDeclined, outcome.Rejection.Reason)
		backend.AssertNotCalled(t, "VerifyNativePayment", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dismissed dialog is a cancel path distinct from decline", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewNativeSDKAdapter(new(mockBackend), nil)
		outcome, err := adapter.Resolve(context.Background(),
			gateway.PendingHandle{Kind: gateway.KindNativeSDK},
			gateway.Signal{Type: gateway.SignalDismissed},
		)
		require.NoError(t, err)
		require.True(t, outcome.IsRejected())
		assert.Equal(t, gateway.ReasonDismissed, outcome.Rejection.Reason)
		assert.True(t, outcome.Rejection.Cancelled())
	})
}

func TestHostedAdapter(t *testing.T) {
	t.Parallel()

	tokens := func(ctx context.Context) (string, error) { return "tok_1", nil }

	t.Run("builds hosted checkout URL with purchase and auth context", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewHostedAdapter(tokens, nil)
		args := testArgs(api.Gateway{ID: "woocommerce", CheckoutURL: "https://shop.example.com/checkout"})
		args.Intent.ListingID = "listing-3"
		args.CouponCode = "SAVE10"

		outcome, err := adapter.Submit(context.Background(), args)
		require.NoError(t, err)
		require.True(t, outcome.IsPending())

		u, err := url.Parse(outcome.Handle.RedirectURL)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(outcome.Handle.RedirectURL, "https://shop.example.com/checkout"))
		assert.Equal(t, "plan-1", u.Query().Get("plan_id"))
		assert.Equal(t, "listing-3", u.Query().Get("listing_id"))
		assert.Equal(t, "SAVE10", u.Query().Get("coupon_code"))
		assert.Equal(t, "tok_1", u.Query().Get("app_token"))
	})

	t.Run("missing checkout URL rejects", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewHostedAdapter(tokens, nil)
		outcome, err := adapter.Submit(context.Background(), testArgs(api.Gateway{ID: "woocommerce"}))
		require.NoError(t, err)
		assert.True(t, outcome.IsRejected())
	})

	t.Run("completion marker yields synthetic completed order", func(t *testing.T) {
		t.Parallel()
		adapter := gateway.NewHostedAdapter(tokens, nil)
		outcome, err := adapter.Resolve(context.Background(),
			gateway.PendingHandle{Kind: gateway.KindHosted},
			gateway.Signal{Type: gateway.SignalSucceeded},
		)
		require.NoError(t, err)
		require.True(t, outcome.IsCompleted())
		assert.Equal(t, "Completed", outcome.Order.Status)
	})
}
