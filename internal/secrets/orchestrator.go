// Package secrets fetches managed and user secrets for a resolved
// configuration and flattens them into environment entries.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/project"
	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// Orchestrator gathers secrets from the configured stores.
type Orchestrator struct {
	opener  secretstore.Opener
	logger  *logging.Logger
	timeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithCallTimeout bounds each store call. By default calls carry only the
// caller's context; zero keeps that.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// New creates an Orchestrator that opens stores through opener.
func New(opener secretstore.Opener, opts ...Option) *Orchestrator {
	o := &Orchestrator{opener: opener}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logging.Nop()
	}
	return o
}

// GetSecrets returns every declared secret of cfg keyed by environment name.
// Managed entries are expanded first, then user secrets are added on top.
func (o *Orchestrator) GetSecrets(ctx context.Context, cfg *project.Config) (map[string]string, error) {
	out := map[string]string{}
	spec := cfg.Secrets
	if spec == nil {
		return out, nil
	}

	if len(spec.Managed) > 0 {
		raw, err := o.fetchManaged(ctx, spec)
		if err != nil {
			return nil, err
		}

		names := make([]string, 0, len(raw))
		for name := range raw {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			ms, declared := spec.Managed[name]
			if !declared {
				o.logger.Debug("Ignoring undeclared managed secret %s", name)
				continue
			}
			entries, err := Expand(name, raw[name], ms)
			if err != nil {
				return nil, err
			}
			for k, v := range entries {
				out[k] = v
			}
		}
	}

	userNames := make([]string, 0, len(spec.User))
	for name := range spec.User {
		userNames = append(userNames, name)
	}
	sort.Strings(userNames)

	for _, name := range userNames {
		us := spec.User[name]
		kind := us.EffectiveStore(spec.Store)

		store, err := o.opener.Open(ctx, kind, spec.Region)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", kind, err)
		}

		o.logger.Info("Fetching user secret from %s: %s", storeLabel(kind), us.Name)
		value, err := o.fetchOne(ctx, store, us.Name)
		if err != nil {
			return nil, fmt.Errorf("user secret %s: %w", name, err)
		}
		out[name] = value
	}

	return out, nil
}

func (o *Orchestrator) fetchManaged(ctx context.Context, spec *project.SecretsSpec) (map[string]any, error) {
	store, err := o.opener.Open(ctx, spec.Store, spec.Region)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", spec.Store, err)
	}

	o.logger.Info("Fetching managed secrets from %s: %s", storeLabel(spec.Store), spec.PocketKey)
	raw, err := o.bulkFetch(ctx, store, spec.Scope())
	if err == nil || store.Kind() != secretstore.SecretsManager {
		return raw, err
	}

	switch {
	case errors.Is(err, secretstore.ErrNotFound):
		o.logger.Debug("Secret %s does not exist yet", spec.PocketKey)
		return map[string]any{}, nil

	case errors.Is(err, secretstore.ErrInvalidState):
		o.logger.Warn("Secret was deleted, restoring: %s", spec.PocketKey)
		if err := o.restore(ctx, store, spec.PocketKey); err != nil {
			return nil, err
		}
		return o.bulkFetch(ctx, store, spec.Scope())
	}
	return nil, err
}

func (o *Orchestrator) bulkFetch(ctx context.Context, store secretstore.Store, scope secretstore.Scope) (map[string]any, error) {
	callCtx, cancel := withCallTimeout(ctx, o.timeout)
	defer cancel()
	raw, err := store.BulkFetch(callCtx, scope)
	return raw, timeoutError(err, store.Kind(), o.timeout)
}

func (o *Orchestrator) fetchOne(ctx context.Context, store secretstore.Store, name string) (string, error) {
	callCtx, cancel := withCallTimeout(ctx, o.timeout)
	defer cancel()
	value, err := store.FetchOne(callCtx, name)
	return value, timeoutError(err, store.Kind(), o.timeout)
}

func (o *Orchestrator) restore(ctx context.Context, store secretstore.Store, name string) error {
	callCtx, cancel := withCallTimeout(ctx, o.timeout)
	defer cancel()
	return timeoutError(store.Restore(callCtx, name), store.Kind(), o.timeout)
}
