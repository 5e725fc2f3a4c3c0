package checkout

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
	"github.com/dmitrymomot/checkoutkit/pkg/billing"
	session "github.com/dmitrymomot/checkoutkit/pkg/checkout"
	"github.com/dmitrymomot/checkoutkit/pkg/coupon"
	"github.com/dmitrymomot/checkoutkit/pkg/gateway"
	"github.com/dmitrymomot/checkoutkit/pkg/logger"
	"github.com/dmitrymomot/checkoutkit/pkg/profile"
)

// Config is the subsystem configuration, loadable via pkg/config.
type Config struct {
	API       api.Config
	StripeKey string        `env:"CHECKOUT_STRIPE_PUBLISHABLE_KEY"`
	LogLevel  slog.Level    `env:"CHECKOUT_LOG_LEVEL" envDefault:"INFO"`
	LogFormat logger.Format `env:"CHECKOUT_LOG_FORMAT" envDefault:"json"`
}

// Hooks are the host application's integration points.
type Hooks struct {
	// Tokens supplies the bearer token per outgoing call.
	Tokens api.TokenSource
	// Profile returns the currently cached user profile, used to seed
	// billing form defaults. May return nil.
	Profile func() *api.Profile
	// ApplyProfile replaces the cached profile after a completed purchase.
	ApplyProfile profile.ApplyFunc
}

// defaultExtraRequired lists billing keys a gateway demands even when the
// billing schema omits them for the purchase type.
var defaultExtraRequired = map[string][]string{
	"stripe": {billing.FieldCountry},
}

// Option configures the service.
type Option func(*Service)

// WithLogger replaces the logger built from Config.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithTokenizer replaces the Stripe tokenizer, primarily for tests.
func WithTokenizer(tok gateway.Tokenizer) Option {
	return func(s *Service) {
		if tok != nil {
			s.tokenizer = tok
		}
	}
}

// WithExtraRequired overrides the per-gateway extra required billing keys.
func WithExtraRequired(extra map[string][]string) Option {
	return func(s *Service) { s.extraRequired = extra }
}

// Service is the composed checkout subsystem.
type Service struct {
	cfg      Config
	hooks    Hooks
	log      *slog.Logger
	client   *api.Client
	registry *gateway.Registry
	syncer   *profile.Syncer

	tokenizer     gateway.Tokenizer
	extraRequired map[string][]string
}

// New wires the subsystem. Panics on nil hook functions to fail fast during
// initialization; a backend configuration problem returns an error instead.
func New(cfg Config, hooks Hooks, opts ...Option) (*Service, error) {
	if hooks.Tokens == nil {
		panic("checkout: Hooks.Tokens is required")
	}
	if hooks.Profile == nil {
		panic("checkout: Hooks.Profile is required")
	}
	if hooks.ApplyProfile == nil {
		panic("checkout: Hooks.ApplyProfile is required")
	}

	s := &Service{
		cfg:           cfg,
		hooks:         hooks,
		extraRequired: defaultExtraRequired,
	}
	logOpts := []logger.Option{logger.WithLevel(cfg.LogLevel)}
	if cfg.LogFormat != "" {
		logOpts = append(logOpts, logger.WithFormat(cfg.LogFormat))
	}
	s.log = logger.New(logOpts...)
	for _, opt := range opts {
		opt(s)
	}

	client, err := api.New(cfg.API, hooks.Tokens, api.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	s.client = client

	if s.tokenizer == nil {
		s.tokenizer = gateway.NewStripeTokenizer(cfg.StripeKey)
	}
	s.registry = gateway.NewRegistry(
		gateway.NewStripeCardAdapter(client, s.tokenizer, s.log),
		gateway.NewRawCardAdapter(client, s.log),
		gateway.NewRedirectAdapter(client, s.log),
		gateway.NewNativeSDKAdapter(client, s.log),
		gateway.NewHostedAdapter(hooks.Tokens, s.log),
	)
	s.syncer = profile.NewSyncer(client, hooks.ApplyProfile, profile.WithLogger(s.log))
	return s, nil
}

// Client exposes the underlying API client for host features outside the
// checkout flow.
func (s *Service) Client() *api.Client { return s.client }

// Open starts a checkout session for the given plan.
func (s *Service) Open(ctx context.Context, plan api.Plan, intent api.PurchaseIntent) (*session.Session, error) {
	return session.New(ctx, plan, intent, session.Deps{
		Backend:       s.client,
		Registry:      s.registry,
		Billing:       billing.NewStore(),
		Coupons:       coupon.NewService(s.client, coupon.WithLogger(s.log)),
		Syncer:        s.syncer,
		Profile:       s.hooks.Profile(),
		ExtraRequired: s.extraRequired,
	}, session.WithLogger(s.log))
}

// OpenPreview starts a browse-only session backed by a static catalog
// instead of the live backend. The payment method list and billing form work
// as usual; submission is expected to be disabled by the host in this mode.
func (s *Service) OpenPreview(ctx context.Context, source CatalogSource, planID string) (*session.Session, error) {
	catalog, err := source.Load(ctx)
	if err != nil {
		return nil, err
	}
	plan, ok := catalog.Plan(planID)
	if !ok {
		return nil, ErrPlanNotFound
	}
	return session.New(ctx, plan, api.PurchaseIntent{Type: api.PurchaseMembership, PlanID: plan.ID}, session.Deps{
		Backend:       previewBackend{data: catalog.Checkout},
		Registry:      s.registry,
		Billing:       billing.NewStore(),
		Coupons:       coupon.NewService(s.client, coupon.WithLogger(s.log)),
		Syncer:        s.syncer,
		Profile:       s.hooks.Profile(),
		ExtraRequired: s.extraRequired,
	}, session.WithLogger(s.log))
}

// previewBackend serves the checkout bootstrap payload from a static catalog
// and treats order cancellation as a no-op.
type previewBackend struct {
	data *api.CheckoutData
}

func (b previewBackend) GetCheckoutData(ctx context.Context, intent api.PurchaseIntent) (*api.CheckoutData, error) {
	if b.data == nil {
		return nil, ErrEmptyCatalog
	}
	return b.data, nil
}

func (b previewBackend) CancelOrder(ctx context.Context, orderID int64) error {
	return nil
}
