package checkout_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
	"github.com/dmitrymomot/checkoutkit/pkg/billing"
	"github.com/dmitrymomot/checkoutkit/pkg/checkout"
	"github.com/dmitrymomot/checkoutkit/pkg/confirm"
	"github.com/dmitrymomot/checkoutkit/pkg/coupon"
	"github.com/dmitrymomot/checkoutkit/pkg/gateway"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) GetCheckoutData(ctx context.Context, intent api.PurchaseIntent) (*api.CheckoutData, error) {
	args := m.Called(ctx, intent)
	if d := args.Get(0); d != nil {
		return d.(*api.CheckoutData), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBackend) CancelOrder(ctx context.Context, orderID int64) error {
	return m.Called(ctx, orderID).Error(0)
}

type mockAdapter struct {
	mock.Mock
	kind gateway.Kind
}

func (m *mockAdapter) Kind() gateway.Kind { return m.kind }

func (m *mockAdapter) Submit(ctx context.Context, args gateway.Args) (gateway.Outcome, error) {
	called := m.Called(ctx, args)
	return called.Get(0).(gateway.Outcome), called.Error(1)
}

func (m *mockAdapter) Resolve(ctx context.Context, handle gateway.PendingHandle, signal gateway.Signal) (gateway.Outcome, error) {
	called := m.Called(ctx, handle, signal)
	return called.Get(0).(gateway.Outcome), called.Error(1)
}

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) SyncOnCompleted(ctx context.Context) {
	m.Called(ctx)
}

type stubValidator struct{}

func (stubValidator) ApplyCoupon(ctx context.Context, planID, code string) (*api.CouponInfo, error) {
	return &api.CouponInfo{Subtotal: decimal.NewFromInt(90)}, nil
}

func testCheckoutData() *api.CheckoutData {
	return &api.CheckoutData{
		BillingFields: map[string]api.BillingField{
			"billing_country":  {Label: "Country", Required: true},
			"billing_state":    {Label: "State", Required: true},
			"billing_postcode": {Label: "Postcode", Required: true},
			"billing_email":    {Label: "Email", Required: true},
		},
		Address: api.AddressData{
			Countries: []api.Country{{Code: "US", Name: "United States"}},
			CountryLocale: map[string]api.LocaleRule{
				"US": {State: api.FieldRule{Required: true}, Postcode: api.FieldRule{Required: true}},
			},
		},
		Gateways: []api.Gateway{
			{ID: "stripe", Title: "Card"},
			{ID: "paypal", Title: "PayPal"},
			{ID: "razorpay", Title: "Razorpay"},
			{ID: "woocommerce", Title: "Website checkout"},
			{ID: "unsupported_gw", Title: "Nobody"},
		},
	}
}

type fixture struct {
	backend  *mockBackend
	card     *mockAdapter
	redirect *mockAdapter
	native   *mockAdapter
	hosted   *mockAdapter
	syncer   *mockSyncer
	sess     *checkout.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		backend:  new(mockBackend),
		card:     &mockAdapter{kind: gateway.KindTokenizingCard},
		redirect: &mockAdapter{kind: gateway.KindRedirect},
		native:   &mockAdapter{kind: gateway.KindNativeSDK},
		hosted:   &mockAdapter{kind: gateway.KindHosted},
		syncer:   new(mockSyncer),
	}
	f.backend.On("GetCheckoutData", mock.Anything, mock.Anything).Return(testCheckoutData(), nil).Once()

	sess, err := checkout.New(context.Background(),
		api.Plan{ID: "plan_1", Title: "Gold", Price: decimal.NewFromInt(100)},
		api.PurchaseIntent{Type: api.PurchaseMembership, PlanID: "plan_1"},
		checkout.Deps{
			Backend:  f.backend,
			Registry: gateway.NewRegistry(f.card, f.redirect, f.native, f.hosted),
			Billing:  billing.NewStore(),
			Coupons:  coupon.NewService(stubValidator{}),
			Syncer:   f.syncer,
		},
	)
	require.NoError(t, err)
	f.sess = sess
	return f
}

func fillBilling(s *checkout.Session) {
	s.Billing().SetField("billing_country", "US")
	s.Billing().SetField("billing_state", "CA")
	s.Billing().SetField("billing_postcode", "94016")
	s.Billing().SetField("billing_email", "buyer@example.com")
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("panics on missing dependencies", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			_, _ = checkout.New(context.Background(), api.Plan{}, api.PurchaseIntent{}, checkout.Deps{})
		})
	})

	t.Run("filters methods to registered adapters", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		ids := make([]string, 0, len(f.sess.Methods()))
		for _, g := range f.sess.Methods() {
			ids = append(ids, g.ID)
		}
		assert.Equal(t, []string{"stripe", "paypal", "razorpay", "woocommerce"}, ids)
		assert.Equal(t, checkout.StatusIdle, f.sess.Status())
	})
}

func TestSelectMethod(t *testing.T) {
	t.Parallel()

	t.Run("unknown method", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		err := f.sess.SelectMethod("not_a_gateway")
		assert.ErrorIs(t, err, checkout.ErrUnknownMethod)
		assert.Equal(t, checkout.StatusIdle, f.sess.Status())
	})

	t.Run("selects and reports the method", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("stripe"))
		method, ok := f.sess.Method()
		require.True(t, ok)
		assert.Equal(t, "stripe", method.ID)
		assert.Equal(t, checkout.StatusMethodSelected, f.sess.Status())
	})
}

func TestSubmit(t *testing.T) {
	t.Parallel()

	t.Run("without a selected method", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		var invalid *checkout.InvalidTransitionError
		require.ErrorAs(t, f.sess.Submit(context.Background()), &invalid)
		assert.Equal(t, checkout.StatusIdle, invalid.From)
	})

	t.Run("missing billing fields block without a network call", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("stripe"))
		f.sess.Billing().SetField("billing_country", "US")

		err := f.sess.Submit(context.Background())
		var missing billing.MissingFields
		require.ErrorAs(t, err, &missing)
		assert.True(t, missing.Has("billing_email"))
		assert.True(t, missing.Has("billing_state"))
		assert.Equal(t, checkout.StatusMethodSelected, f.sess.Status())
		assert.True(t, f.sess.Billing().Touched("billing_email"))
		f.card.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("hosted checkout bypasses the local billing form", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("woocommerce"))
		// No billing fields filled in: the hosted page owns the form.
		f.hosted.On("Submit", mock.Anything, mock.Anything).
			Return(gateway.Pending(gateway.PendingHandle{
				Kind:        gateway.KindHosted,
				RedirectURL: "https://shop.example.com/checkout/?plan_id=plan_1",
			}), nil).Once()

		require.NoError(t, f.sess.Submit(context.Background()))
		assert.Equal(t, checkout.StatusAwaitingHostedCheckout, f.sess.Status())
		require.NotNil(t, f.sess.Pending())
		assert.Equal(t, gateway.KindHosted, f.sess.Pending().Kind)
		f.hosted.AssertExpectations(t)
	})

	t.Run("completed outcome triggers profile sync", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("stripe"))
		f.sess.SetCard(gateway.CardDetails{Number: "4242424242424242", ExpMonth: 4, ExpYear: 2030, CVC: "123"})
		fillBilling(f.sess)

		order := &api.OrderData{ID: 42, Status: "Completed"}
		f.card.On("Submit", mock.Anything, mock.MatchedBy(func(args gateway.Args) bool {
			return args.Card != nil && args.IdempotencyKey != "" && args.Billing["billing_country"] == "US"
		})).Return(gateway.Completed(order), nil).Once()
		f.syncer.On("SyncOnCompleted", mock.Anything).Once()

		require.NoError(t, f.sess.Submit(context.Background()))
		assert.Equal(t, checkout.StatusCompleted, f.sess.Status())
		require.NotNil(t, f.sess.Order())
		assert.Equal(t, int64(42), f.sess.Order().ID)
		f.card.AssertExpectations(t)
		f.syncer.AssertExpectations(t)
	})

	t.Run("pending outcome parks in the matching awaiting state", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		fillBilling(f.sess)

		handle := gateway.PendingHandle{Kind: gateway.KindRedirect, OrderID: 7, RedirectURL: "https://pay.example.com/7"}
		f.redirect.On("Submit", mock.Anything, mock.Anything).Return(gateway.Pending(handle), nil).Once()

		require.NoError(t, f.sess.Submit(context.Background()))
		assert.Equal(t, checkout.StatusAwaitingRedirect, f.sess.Status())
		require.NotNil(t, f.sess.Pending())
		assert.Equal(t, "https://pay.example.com/7", f.sess.Pending().RedirectURL)
	})

	t.Run("second submit while awaiting is refused", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		fillBilling(f.sess)
		f.redirect.On("Submit", mock.Anything, mock.Anything).
			Return(gateway.Pending(gateway.PendingHandle{Kind: gateway.KindRedirect}), nil).Once()
		require.NoError(t, f.sess.Submit(context.Background()))

		assert.ErrorIs(t, f.sess.Submit(context.Background()), checkout.ErrSubmissionInFlight)
		f.redirect.AssertNumberOfCalls(t, "Submit", 1)
	})

	t.Run("rejected attempt re-enters from method selection", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("stripe"))
		f.sess.SetCard(gateway.CardDetails{Number: "4000000000000002", ExpMonth: 1, ExpYear: 2030, CVC: "123"})
		fillBilling(f.sess)

		f.card.On("Submit", mock.Anything, mock.Anything).
			Return(gateway.Rejected(gateway.Rejection{Reason: gateway.ReasonDeclined, Message: "Your card was declined."}), nil).Once()
		require.NoError(t, f.sess.Submit(context.Background()))
		assert.Equal(t, checkout.StatusRejected, f.sess.Status())
		require.NotNil(t, f.sess.Rejection())
		assert.False(t, f.sess.Rejection().Retryable())

		// Billing data survives the rejection and the session accepts a new attempt.
		require.NoError(t, f.sess.SelectMethod("paypal"))
		assert.Equal(t, "US", f.sess.Billing().Value("billing_country"))
		assert.Nil(t, f.sess.Rejection())
		assert.Equal(t, checkout.StatusMethodSelected, f.sess.Status())
	})
}

func TestResolveViaBridge(t *testing.T) {
	t.Parallel()

	t.Run("redirect success completes once, later events ignored", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		fillBilling(f.sess)
		handle := gateway.PendingHandle{Kind: gateway.KindRedirect, OrderID: 9}
		f.redirect.On("Submit", mock.Anything, mock.Anything).Return(gateway.Pending(handle), nil).Once()
		require.NoError(t, f.sess.Submit(context.Background()))

		order := &api.OrderData{ID: 9, Method: "redirect", Status: "Processing"}
		f.redirect.On("Resolve", mock.Anything, handle, mock.MatchedBy(func(s gateway.Signal) bool {
			return s.Type == gateway.SignalSucceeded
		})).Return(gateway.Completed(order), nil).Once()
		f.syncer.On("SyncOnCompleted", mock.Anything).Once()

		ctx := context.Background()
		require.NoError(t, f.sess.ObserveNavigation(ctx, confirm.NavigationEvent{URL: "https://shop.example.com/cb?rtcl_return=success"}))
		assert.Equal(t, checkout.StatusCompleted, f.sess.Status())

		// A duplicate completion event after teardown changes nothing.
		require.NoError(t, f.sess.ObserveNavigation(ctx, confirm.NavigationEvent{URL: "https://shop.example.com/cb?rtcl_return=success"}))
		assert.Equal(t, checkout.StatusCompleted, f.sess.Status())
		f.redirect.AssertNumberOfCalls(t, "Resolve", 1)
	})

	t.Run("dismissing the surface cancels the attempt and the order", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		fillBilling(f.sess)
		handle := gateway.PendingHandle{Kind: gateway.KindRedirect, OrderID: 11}
		f.redirect.On("Submit", mock.Anything, mock.Anything).Return(gateway.Pending(handle), nil).Once()
		require.NoError(t, f.sess.Submit(context.Background()))

		f.redirect.On("Resolve", mock.Anything, handle, mock.MatchedBy(func(s gateway.Signal) bool {
			return s.Type == gateway.SignalCancelled
		})).Return(gateway.Rejected(gateway.Rejection{Reason: gateway.ReasonCancelled, Message: "Payment was cancelled."}), nil).Once()
		f.backend.On("CancelOrder", mock.Anything, int64(11)).Return(nil).Once()

		require.NoError(t, f.sess.Dismiss(context.Background()))
		assert.Equal(t, checkout.StatusRejected, f.sess.Status())
		require.NotNil(t, f.sess.Rejection())
		assert.Equal(t, gateway.ReasonCancelled, f.sess.Rejection().Reason)
		assert.True(t, f.sess.Rejection().Cancelled())
		f.backend.AssertExpectations(t)
	})

	t.Run("navigation events outside awaiting states are no-ops", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		require.NoError(t, f.sess.ObserveNavigation(context.Background(), confirm.NavigationEvent{URL: "https://shop.example.com/cb?rtcl_return=success"}))
		assert.Equal(t, checkout.StatusMethodSelected, f.sess.Status())
	})
}

func TestClose(t *testing.T) {
	t.Parallel()

	t.Run("mid-awaiting close cancels deterministically", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		fillBilling(f.sess)
		handle := gateway.PendingHandle{Kind: gateway.KindRedirect, OrderID: 21}
		f.redirect.On("Submit", mock.Anything, mock.Anything).Return(gateway.Pending(handle), nil).Once()
		require.NoError(t, f.sess.Submit(context.Background()))

		f.backend.On("CancelOrder", mock.Anything, int64(21)).Return(nil).Once()
		f.sess.Close(context.Background())

		assert.Equal(t, checkout.StatusRejected, f.sess.Status())
		require.NotNil(t, f.sess.Rejection())
		assert.Equal(t, gateway.ReasonCancelled, f.sess.Rejection().Reason)
		assert.ErrorIs(t, f.sess.Submit(context.Background()), checkout.ErrSessionFinished)
		f.backend.AssertExpectations(t)
	})

	t.Run("close without an order skips cancellation", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		require.NoError(t, f.sess.SelectMethod("paypal"))
		fillBilling(f.sess)
		f.redirect.On("Submit", mock.Anything, mock.Anything).
			Return(gateway.Pending(gateway.PendingHandle{Kind: gateway.KindRedirect}), nil).Once()
		require.NoError(t, f.sess.Submit(context.Background()))

		f.sess.Close(context.Background())
		f.backend.AssertNotCalled(t, "CancelOrder", mock.Anything, mock.Anything)
	})

	t.Run("idempotent", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.sess.Close(context.Background())
		f.sess.Close(context.Background())
		assert.ErrorIs(t, f.sess.SelectMethod("stripe"), checkout.ErrSessionFinished)
	})
}

func TestEffectivePrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	assert.True(t, f.sess.EffectivePrice().Equal(decimal.NewFromInt(100)))

	require.NoError(t, f.sess.Coupons().Apply(context.Background(), "plan_1", "SAVE10"))
	assert.True(t, f.sess.EffectivePrice().Equal(decimal.NewFromInt(90)))

	f.sess.Coupons().Remove()
	assert.True(t, f.sess.EffectivePrice().Equal(decimal.NewFromInt(100)))
}
