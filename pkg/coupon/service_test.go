package coupon_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
	"github.com/dmitrymomot/checkoutkit/pkg/coupon"
)

type mockValidator struct {
	mock.Mock
}

func (m *mockValidator) ApplyCoupon(ctx context.Context, planID, code string) (*api.CouponInfo, error) {
	args := m.Called(ctx, planID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CouponInfo), args.Error(1)
}

func info(discount, subtotal int64) *api.CouponInfo {
	return &api.CouponInfo{
		Discount: decimal.NewFromInt(discount),
		Subtotal: decimal.NewFromInt(subtotal),
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("stores discount and applied code", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "SAVE10").Return(info(10, 90), nil)

		svc := coupon.NewService(v)
		require.NoError(t, svc.Apply(context.Background(), "plan-1", "SAVE10"))

		state := svc.State()
		assert.Equal(t, "SAVE10", state.Applied)
		require.NotNil(t, state.Info)
		assert.True(t, state.Info.Subtotal.Equal(decimal.NewFromInt(90)))
		assert.True(t, state.IsApplied())
	})

	t.Run("rejection stores error and applies nothing", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		declined := &api.CouponDeclinedError{Message: "Coupon has expired"}
		v.On("ApplyCoupon", mock.Anything, "plan-1", "OLD").Return(nil, declined)

		svc := coupon.NewService(v)
		err := svc.Apply(context.Background(), "plan-1", "OLD")
		require.Error(t, err)

		state := svc.State()
		assert.Empty(t, state.Applied)
		assert.Nil(t, state.Info)
		assert.Equal(t, declined, state.Err)
		assert.Empty(t, svc.AppliedCode())
	})

	t.Run("new apply clears previous result before request", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "SAVE10").Return(info(10, 90), nil)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "BROKEN").Run(func(args mock.Arguments) {
			// While the second request is in flight nothing of the first
			// result may linger.
		}).Return(nil, &api.CouponDeclinedError{Message: "nope"})

		svc := coupon.NewService(v)
		require.NoError(t, svc.Apply(context.Background(), "plan-1", "SAVE10"))
		_ = svc.Apply(context.Background(), "plan-1", "BROKEN")

		state := svc.State()
		assert.Empty(t, state.Applied)
		assert.Nil(t, state.Info)
		assert.Error(t, state.Err)
	})

	t.Run("rejects empty code without network call", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		svc := coupon.NewService(v)
		assert.ErrorIs(t, svc.Apply(context.Background(), "plan-1", "  "), coupon.ErrEmptyCode)
		v.AssertNotCalled(t, "ApplyCoupon", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("overlapping apply is refused", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		started := make(chan struct{})
		release := make(chan struct{})
		v.On("ApplyCoupon", mock.Anything, "plan-1", "SLOW").Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(info(5, 95), nil)

		svc := coupon.NewService(v)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.Apply(context.Background(), "plan-1", "SLOW")
		}()

		<-started
		err := svc.Apply(context.Background(), "plan-1", "OTHER")
		assert.ErrorIs(t, err, coupon.ErrApplyInProgress)
		close(release)
		wg.Wait()
	})
}

func TestRemove(t *testing.T) {
	t.Parallel()

	t.Run("removal is idempotent after any apply sequence", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "SAVE10").Return(info(10, 90), nil)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "BAD").Return(nil, &api.CouponDeclinedError{Message: "no"})

		svc := coupon.NewService(v)
		_ = svc.Apply(context.Background(), "plan-1", "SAVE10")
		_ = svc.Apply(context.Background(), "plan-1", "BAD")
		svc.Remove()
		svc.Remove()

		state := svc.State()
		assert.Empty(t, state.Code)
		assert.Empty(t, state.Applied)
		assert.Nil(t, state.Info)
		assert.Nil(t, state.Err)
	})
}

func TestEffectivePrice(t *testing.T) {
	t.Parallel()

	planPrice := decimal.NewFromInt(100)

	t.Run("apply then remove restores plan price", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "SAVE10").Return(info(10, 90), nil)

		svc := coupon.NewService(v)
		assert.True(t, svc.EffectivePrice(planPrice).Equal(planPrice))

		require.NoError(t, svc.Apply(context.Background(), "plan-1", "SAVE10"))
		assert.True(t, svc.EffectivePrice(planPrice).Equal(decimal.NewFromInt(90)))

		svc.Remove()
		assert.True(t, svc.EffectivePrice(planPrice).Equal(planPrice))
	})

	t.Run("failed apply keeps plan price", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "BAD").Return(nil, &api.CouponDeclinedError{Message: "no"})

		svc := coupon.NewService(v)
		_ = svc.Apply(context.Background(), "plan-1", "BAD")
		assert.True(t, svc.EffectivePrice(planPrice).Equal(planPrice))
	})

	t.Run("zero-amount discount is a valid applied state", func(t *testing.T) {
		t.Parallel()
		v := new(mockValidator)
		v.On("ApplyCoupon", mock.Anything, "plan-1", "FREEBIE").Return(info(0, 100), nil)

		svc := coupon.NewService(v)
		require.NoError(t, svc.Apply(context.Background(), "plan-1", "FREEBIE"))
		assert.True(t, svc.State().IsApplied())
		assert.Equal(t, "FREEBIE", svc.AppliedCode())
		assert.True(t, svc.EffectivePrice(planPrice).Equal(decimal.NewFromInt(100)))
	})
}
