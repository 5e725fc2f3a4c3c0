package coupon

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// Validator is the backend surface the service needs; satisfied by *api.Client.
type Validator interface {
	ApplyCoupon(ctx context.Context, planID, code string) (*api.CouponInfo, error)
}

// State is the coupon snapshot the payment sheet renders. Applied and Info
// are set and cleared together; Err carries the last rejection, if any.
type State struct {
	Code    string
	Applied string
	Info    *api.CouponInfo
	Err     error
}

// IsApplied reports whether a coupon is currently applied without error.
// Presence of the server result decides; a zero discount still counts.
func (s State) IsApplied() bool {
	return s.Applied != "" && s.Info != nil && s.Err == nil
}

// Option configures the service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// Service validates coupon codes for one checkout session.
type Service struct {
	validator Validator
	log       *slog.Logger

	mu       sync.Mutex
	state    State
	inFlight bool
}

// NewService creates a coupon service.
// Panics if the validator is nil to fail fast during initialization.
func NewService(validator Validator, opts ...Option) *Service {
	if validator == nil {
		panic("coupon: Validator is required")
	}
	s := &Service{
		validator: validator,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current coupon snapshot.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Apply validates code against the plan. Any previous result is cleared
// before the request is sent; on rejection the error is stored and no code is
// applied. Concurrent applies are refused with ErrApplyInProgress.
func (s *Service) Apply(ctx context.Context, planID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCode
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrApplyInProgress
	}
	s.inFlight = true
	s.state = State{Code: code}
	s.mu.Unlock()

	info, err := s.validator.ApplyCoupon(ctx, planID, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.log.Debug("coupon rejected", slog.String("plan_id", planID), slog.Any("error", err))
		s.state.Err = err
		return err
	}
	s.state.Applied = code
	s.state.Info = info
	return nil
}

// Remove clears code, applied code, discount info and error unconditionally.
func (s *Service) Remove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

// AppliedCode returns the currently applied coupon code, or empty when no
// coupon is applied or the last apply failed.
func (s *Service) AppliedCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsApplied() {
		return ""
	}
	return s.state.Applied
}

// EffectivePrice returns the amount actually payable: the server-computed
// subtotal while a coupon is applied without error, otherwise the plan price.
func (s *Service) EffectivePrice(planPrice decimal.Decimal) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsApplied() {
		return s.state.Info.Subtotal
	}
	return planPrice
}
