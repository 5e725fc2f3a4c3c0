package checkout

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
	"github.com/dmitrymomot/checkoutkit/pkg/billing"
	"github.com/dmitrymomot/checkoutkit/pkg/confirm"
	"github.com/dmitrymomot/checkoutkit/pkg/coupon"
	"github.com/dmitrymomot/checkoutkit/pkg/gateway"
	"github.com/dmitrymomot/checkoutkit/pkg/logger"
)

// Backend is the API surface the session itself consumes; satisfied by
// *api.Client. Adapters talk to the backend through their own interface.
type Backend interface {
	GetCheckoutData(ctx context.Context, intent api.PurchaseIntent) (*api.CheckoutData, error)
	CancelOrder(ctx context.Context, orderID int64) error
}

// ProfileSyncer refreshes the cached user profile after a completed purchase;
// satisfied by *profile.Syncer.
type ProfileSyncer interface {
	SyncOnCompleted(ctx context.Context)
}

// Deps carries the session's collaborators. Backend, Registry and Coupons are
// required; Billing defaults to a fresh store when nil.
type Deps struct {
	Backend  Backend
	Registry *gateway.Registry
	Billing  *billing.Store
	Coupons  *coupon.Service
	Syncer   ProfileSyncer
	// Profile seeds billing form defaults from the cached user profile.
	Profile *api.Profile
	// ExtraRequired lists billing keys a gateway demands even when the
	// schema omits them, keyed by backend gateway ID. Typically
	// {"billing_country"} for gateways that price by region.
	ExtraRequired map[string][]string
}

// Option configures the session.
type Option func(*Session)

func WithLogger(log *slog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// Session is one purchase attempt's orchestrator. Not goroutine-safe; all
// calls must come from the owning (UI) goroutine.
type Session struct {
	id     string
	plan   api.Plan
	intent api.PurchaseIntent
	deps   Deps
	log    *slog.Logger

	data    *api.CheckoutData
	methods []api.Gateway

	status    Status
	method    api.Gateway
	hasMethod bool
	adapter   gateway.Adapter
	card      *gateway.CardDetails

	pending *gateway.PendingHandle
	bridge  *confirm.Bridge

	order     *api.OrderData
	rejection *gateway.Rejection
	closed    bool
}

// New opens a checkout session for the given plan: it loads the checkout
// bootstrap payload, seeds the billing store from schema defaults and the
// cached profile, and exposes the payment methods an adapter is registered
// for. Panics on nil required dependencies to fail fast during
// initialization.
func New(ctx context.Context, plan api.Plan, intent api.PurchaseIntent, deps Deps, opts ...Option) (*Session, error) {
	if deps.Backend == nil {
		panic("checkout: Backend is required")
	}
	if deps.Registry == nil {
		panic("checkout: Registry is required")
	}
	if deps.Coupons == nil {
		panic("checkout: coupon service is required")
	}
	if deps.Billing == nil {
		deps.Billing = billing.NewStore()
	}

	s := &Session{
		id:     uuid.NewString(),
		plan:   plan,
		intent: intent,
		deps:   deps,
		log:    slog.Default(),
		status: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.SessionID(s.id))

	data, err := deps.Backend.GetCheckoutData(ctx, intent)
	if err != nil {
		return nil, err
	}
	s.data = data
	deps.Billing.Load(data, deps.Profile)

	for _, g := range data.Gateways {
		if deps.Registry.Supported(g.ID) {
			s.methods = append(s.methods, g)
		}
	}
	return s, nil
}

// ID is the session's unique identifier, present on every log record the
// session emits.
func (s *Session) ID() string { return s.id }

// Status returns the current state.
func (s *Session) Status() Status { return s.status }

// Plan returns the plan this session was opened for.
func (s *Session) Plan() api.Plan { return s.plan }

// Methods returns the payment methods available for this purchase, filtered
// to those with a registered adapter.
func (s *Session) Methods() []api.Gateway { return s.methods }

// Method returns the currently selected payment method.
func (s *Session) Method() (api.Gateway, bool) { return s.method, s.hasMethod }

// Billing exposes the billing form store owned by this session.
func (s *Session) Billing() *billing.Store { return s.deps.Billing }

// Coupons exposes the coupon service owned by this session.
func (s *Session) Coupons() *coupon.Service { return s.deps.Coupons }

// EffectivePrice is the payable amount: the coupon subtotal when a coupon is
// applied, the plan price otherwise.
func (s *Session) EffectivePrice() decimal.Decimal {
	return s.deps.Coupons.EffectivePrice(s.plan.Price)
}

// Order returns the completed order, set only in StatusCompleted.
func (s *Session) Order() *api.OrderData { return s.order }

// Rejection returns the last attempt's rejection, set only in StatusRejected.
func (s *Session) Rejection() *gateway.Rejection { return s.rejection }

// Pending returns the handle of the attempt awaiting out-of-band
// confirmation, nil outside the Awaiting* states. The host uses it to open
// the confirmation surface (webview URL, native SDK parameters).
func (s *Session) Pending() *gateway.PendingHandle { return s.pending }

// SetCard stores the raw card input for the card variants. Values never
// persist across method reselection.
func (s *Session) SetCard(card gateway.CardDetails) {
	s.card = &card
}

// SelectMethod makes the given payment method the active one. Stale card
// state is cleared, and a previous in-flight pending attempt is abandoned so
// exactly one adapter is ever active. Allowed from any non-completed state.
func (s *Session) SelectMethod(gatewayID string) error {
	if s.closed || s.status.Terminal() {
		return ErrSessionFinished
	}
	if err := s.transition(StatusMethodSelected); err != nil {
		return err
	}

	var method api.Gateway
	found := false
	for _, g := range s.methods {
		if g.ID == gatewayID {
			method, found = g, true
			break
		}
	}
	if !found {
		return ErrUnknownMethod
	}
	adapter, err := s.deps.Registry.For(gatewayID)
	if err != nil {
		return err
	}

	s.teardownPending()
	s.card = nil
	s.rejection = nil
	s.method = method
	s.hasMethod = true
	s.adapter = adapter
	s.status = StatusMethodSelected
	s.log.Debug("payment method selected", logger.Gateway(gatewayID))
	return nil
}

// Submit runs one checkout attempt with the selected method. A second Submit
// while one is in flight is refused with ErrSubmissionInFlight. A validation
// failure keeps the session in MethodSelected, returns the missing fields as
// the error, and performs no network call. The hosted variant skips local
// billing validation entirely: the hosted page owns the billing form.
func (s *Session) Submit(ctx context.Context) error {
	if s.closed || s.status.Terminal() {
		return ErrSessionFinished
	}
	if s.status.InFlight() {
		return ErrSubmissionInFlight
	}
	if err := s.transition(StatusValidating); err != nil {
		return err
	}
	s.status = StatusValidating

	if s.adapter.Kind() != gateway.KindHosted {
		if missing := s.deps.Billing.Validate(s.deps.ExtraRequired[s.method.ID]...); len(missing) > 0 {
			s.status = StatusMethodSelected
			return missing
		}
	}

	s.status = StatusSubmitting
	args := gateway.Args{
		Intent:         s.intent,
		Method:         s.method,
		CouponCode:     s.deps.Coupons.AppliedCode(),
		Billing:        s.deps.Billing.Data(),
		Card:           s.card,
		IdempotencyKey: uuid.NewString(),
	}
	s.log.Info("submitting checkout",
		logger.Gateway(s.method.ID),
		logger.PlanID(s.intent.PlanID),
	)

	outcome, err := s.adapter.Submit(ctx, args)
	if err != nil {
		// Programmer error (nil deps, wrong variant), not a protocol
		// failure. Surface it and let the attempt be retried.
		s.status = StatusMethodSelected
		return err
	}
	return s.applyOutcome(ctx, outcome)
}

// ObserveNavigation feeds one webview navigation event into the pending
// attempt. Events outside an Awaiting* state, or after the first accepted
// signal, are ignored.
func (s *Session) ObserveNavigation(ctx context.Context, event confirm.NavigationEvent) error {
	if s.bridge == nil || !s.status.Awaiting() {
		return nil
	}
	signal, ok := s.bridge.ObserveNavigation(event)
	if !ok {
		return nil
	}
	return s.resolve(ctx, signal)
}

// ObserveNativeResult feeds the native SDK completion payload into the
// pending attempt.
func (s *Session) ObserveNativeResult(ctx context.Context, payload confirm.NativePayload) error {
	if s.bridge == nil || !s.status.Awaiting() {
		return nil
	}
	signal, ok := s.bridge.ObserveNativeResult(payload)
	if !ok {
		return nil
	}
	return s.resolve(ctx, signal)
}

// ObserveChallengeResult feeds the client-side card challenge result into
// the pending attempt; a nil error means the challenge passed.
func (s *Session) ObserveChallengeResult(ctx context.Context, challengeErr error) error {
	if s.bridge == nil || !s.status.Awaiting() {
		return nil
	}
	signal, ok := s.bridge.ObserveChallengeResult(challengeErr)
	if !ok {
		return nil
	}
	return s.resolve(ctx, signal)
}

// Dismiss reports that the user closed the confirmation surface. The pending
// attempt deterministically resolves to a cancelled rejection; the session
// stays re-enterable.
func (s *Session) Dismiss(ctx context.Context) error {
	if s.bridge == nil || !s.status.Awaiting() {
		return nil
	}
	signal, ok := s.bridge.Dismiss()
	if !ok {
		return nil
	}
	return s.resolve(ctx, signal)
}

// Close ends the session. An in-flight pending attempt resolves to a
// cancelled rejection, with a best-effort server-side order cancellation when
// the attempt already created an order. Safe to call in any state; later
// calls are no-ops.
func (s *Session) Close(ctx context.Context) {
	if s.closed {
		return
	}
	s.closed = true

	if s.status.Awaiting() {
		s.cancelPendingOrder(ctx)
		s.teardownPending()
		s.rejection = &gateway.Rejection{
			Reason:  gateway.ReasonCancelled,
			Message: "Payment was cancelled.",
		}
		s.status = StatusRejected
	}
	s.log.Debug("checkout session closed", logger.Status(string(s.status)))
}

// resolve finalizes the pending attempt from a bridge signal. The adapter
// owns any confirm/verify round trip the protocol requires.
func (s *Session) resolve(ctx context.Context, signal gateway.Signal) error {
	if s.pending == nil || s.adapter == nil {
		return nil
	}
	outcome, err := s.adapter.Resolve(ctx, *s.pending, signal)
	if err != nil {
		return err
	}
	if outcome.IsRejected() && outcome.Rejection.Cancelled() {
		s.cancelPendingOrder(ctx)
	}
	return s.applyOutcome(ctx, outcome)
}

// applyOutcome drives the transition an adapter outcome dictates.
func (s *Session) applyOutcome(ctx context.Context, outcome gateway.Outcome) error {
	switch {
	case outcome.IsCompleted():
		if err := s.transition(StatusCompleted); err != nil {
			return err
		}
		s.order = outcome.Order
		s.teardownPending()
		s.status = StatusCompleted
		s.log.Info("checkout completed",
			logger.OrderID(outcome.Order.ID),
			logger.Gateway(s.method.ID),
		)
		if s.deps.Syncer != nil {
			s.deps.Syncer.SyncOnCompleted(ctx)
		}
		return nil

	case outcome.IsPending():
		next, ok := awaitStatus[outcome.Handle.Kind]
		if !ok {
			return ErrUnexpectedOutcome
		}
		if err := s.transition(next); err != nil {
			return err
		}
		s.pending = outcome.Handle
		s.bridge = confirm.NewBridge(outcome.Handle.Kind, confirm.WithLogger(s.log))
		s.status = next
		return nil

	case outcome.IsRejected():
		if err := s.transition(StatusRejected); err != nil {
			return err
		}
		s.rejection = outcome.Rejection
		s.teardownPending()
		s.status = StatusRejected
		if outcome.Rejection.Cancelled() {
			s.log.Info("checkout cancelled", logger.Gateway(s.method.ID))
		} else {
			s.log.Warn("checkout rejected",
				logger.Gateway(s.method.ID),
				slog.String("reason", string(outcome.Rejection.Reason)),
			)
		}
		return nil
	}
	return ErrUnexpectedOutcome
}

// cancelPendingOrder is the best-effort server-side cleanup for a cancelled
// attempt that already created an order. Failures are logged and dropped.
func (s *Session) cancelPendingOrder(ctx context.Context) {
	if s.pending == nil || s.pending.OrderID == 0 {
		return
	}
	if err := s.deps.Backend.CancelOrder(ctx, s.pending.OrderID); err != nil {
		s.log.Warn("order cancellation failed",
			logger.OrderID(s.pending.OrderID),
			logger.Error(err),
		)
	}
}

func (s *Session) teardownPending() {
	s.pending = nil
	s.bridge = nil
}

// transition validates a status change against the transition table without
// committing it; callers set the status after their own bookkeeping.
func (s *Session) transition(to Status) error {
	if !canTransition(s.status, to) {
		return &InvalidTransitionError{From: s.status, To: to}
	}
	return nil
}
