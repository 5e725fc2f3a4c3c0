// Package profile refreshes the authenticated user's cached profile after a
// completed purchase, so entitlement state (e.g. an activated membership) is
// current before the checkout session fully closes.
package profile

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/checkoutkit/pkg/api"
)

// Fetcher is the backend surface the syncer needs; satisfied by *api.Client.
type Fetcher interface {
	Me(ctx context.Context) (*api.Profile, error)
}

// ApplyFunc replaces the host application's cached profile. The host supplies
// it at construction; the syncer never reaches into shared state directly.
type ApplyFunc func(*api.Profile)

// Option configures the syncer.
type Option func(*Syncer)

func WithLogger(log *slog.Logger) Option {
	return func(s *Syncer) {
		if log != nil {
			s.log = log
		}
	}
}

// Syncer performs the post-completion profile refresh.
type Syncer struct {
	fetcher Fetcher
	apply   ApplyFunc
	log     *slog.Logger
}

// NewSyncer creates a profile syncer.
// Panics on nil dependencies to fail fast during initialization.
func NewSyncer(fetcher Fetcher, apply ApplyFunc, opts ...Option) *Syncer {
	if fetcher == nil {
		panic("profile: Fetcher is required")
	}
	if apply == nil {
		panic("profile: ApplyFunc is required")
	}
	s := &Syncer{fetcher: fetcher, apply: apply, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncOnCompleted fetches the current profile and hands it to the host.
// Failures are logged and dropped: the purchase already completed, and a
// stale cached profile fixes itself on the next refresh. The call returns
// only after the attempt finished, so session teardown can wait on it.
func (s *Syncer) SyncOnCompleted(ctx context.Context) {
	fetched, err := s.fetcher.Me(ctx)
	if err != nil {
		s.log.Warn("profile refresh after checkout failed", slog.Any("error", err))
		return
	}
	s.apply(fetched)
}
