// Package bootstrap publishes secrets and discovered resources into an
// environment before the workload starts.
package bootstrap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/internal/project"
	"github.com/worgue/magic-pocket/internal/resources"
)

// Loader resolves the project document.
type Loader interface {
	// Load resolves the document for stage.
	Load(stage string) (*project.Config, error)
	// LoadGeneral decodes only the general section.
	LoadGeneral() (*project.Config, error)
}

// FileLoader loads the document at Path.
type FileLoader struct {
	Path string
}

// Load implements Loader.
func (l FileLoader) Load(stage string) (*project.Config, error) {
	return project.LoadFile(l.Path, stage)
}

// LoadGeneral implements Loader.
func (l FileLoader) LoadGeneral() (*project.Config, error) {
	return project.LoadGeneralFile(l.Path)
}

// SecretsSource fetches the secrets of a resolved configuration.
type SecretsSource interface {
	GetSecrets(ctx context.Context, cfg *project.Config) (map[string]string, error)
}

// ResourceSource discovers handler resources.
type ResourceSource interface {
	Resolve(ctx context.Context, cfg *project.Config) resources.Resources
}

// Bootstrapper runs the secrets and resources phases against one sink.
type Bootstrapper struct {
	loader    Loader
	secrets   SecretsSource
	resources ResourceSource
	sink      Sink
	session   *Session
	logger    *logging.Logger
	metrics   *metrics.Metrics
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithSession shares session between bootstrappers. By default each
// Bootstrapper gets its own session.
func WithSession(session *Session) Option {
	return func(b *Bootstrapper) {
		b.session = session
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = logger
	}
}

// WithMetrics records phase timings on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bootstrapper) {
		b.metrics = m
	}
}

// New creates a Bootstrapper publishing into sink.
func New(loader Loader, secrets SecretsSource, res ResourceSource, sink Sink, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		loader:    loader,
		secrets:   secrets,
		resources: res,
		sink:      sink,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.session == nil {
		b.session = NewSession()
	}
	if b.logger == nil {
		b.logger = logging.Nop()
	}
	return b
}

// Session returns the session guarding the phases.
func (b *Bootstrapper) Session() *Session {
	return b.session
}

// SetEnvs runs the secrets phase, then the resources phase. An empty stage
// falls back to POCKET_STAGE.
func (b *Bootstrapper) SetEnvs(ctx context.Context, stage string) error {
	if err := b.SetEnvsFromSecrets(ctx, stage); err != nil {
		return err
	}
	return b.SetEnvsFromResources(ctx, stage)
}

// SetEnvsFromSecrets publishes every secret of the stage. It runs at most
// once per session and does nothing for NoStage.
func (b *Bootstrapper) SetEnvsFromSecrets(ctx context.Context, stage string) (err error) {
	if !b.begin(PhaseSecrets, EnvSecretsLoaded) {
		return nil
	}
	if err := b.sink.Set(EnvSecretsLoaded, "true"); err != nil {
		return err
	}

	stage = b.session.Stage(stage)
	if stage == NoStage {
		b.logger.Debug("No stage selected, skipping secrets")
		return nil
	}

	start := time.Now()
	defer func() { b.metrics.ObservePhase(string(PhaseSecrets), start, err) }()

	cfg, err := b.loader.Load(stage)
	if err != nil {
		return err
	}
	data, err := b.secrets.GetSecrets(ctx, cfg)
	if err != nil {
		return err
	}

	b.logger.Info("Setting %d secret env vars", len(data))
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]entry, 0, len(names))
	for _, name := range names {
		entries = append(entries, entry{name, data[name]})
	}
	return b.publish(PhaseSecrets, entries)
}

// SetEnvsFromResources publishes general entries and discovered hosts and
// queue URLs. It runs at most once per session; for NoStage only the general
// entries are published. Failed lookups never fail the phase.
func (b *Bootstrapper) SetEnvsFromResources(ctx context.Context, stage string) (err error) {
	if !b.begin(PhaseResources, EnvResourcesLoaded) {
		return nil
	}
	if err := b.sink.Set(EnvResourcesLoaded, "true"); err != nil {
		return err
	}

	start := time.Now()
	defer func() { b.metrics.ObservePhase(string(PhaseResources), start, err) }()

	stage = b.session.Stage(stage)
	if stage == NoStage {
		cfg, err := b.loader.LoadGeneral()
		if err != nil {
			return err
		}
		return b.publish(PhaseResources, generalEntries(cfg))
	}

	cfg, err := b.loader.Load(stage)
	if err != nil {
		return err
	}
	entries := generalEntries(cfg)
	if len(cfg.Handlers) == 0 {
		entries = append(entries, entry{EnvHosts, ""})
	} else {
		entries = append(entries, resourceEntries(cfg, b.resources.Resolve(ctx, cfg))...)
	}
	return b.publish(PhaseResources, entries)
}

func (b *Bootstrapper) begin(phase Phase, marker string) bool {
	if b.session.Claim(phase) {
		return true
	}
	b.logger.Debug("%s already set, skipping %s", marker, phase)
	b.metrics.PhaseSkipped(string(phase))
	return false
}

func (b *Bootstrapper) publish(phase Phase, entries []entry) error {
	set := b.sink.Set
	if secretSink, ok := b.sink.(SecretSink); ok && phase == PhaseSecrets {
		set = secretSink.SetSecret
	}
	for _, e := range entries {
		if err := set(e.name, e.value); err != nil {
			return fmt.Errorf("publish %s: %w", e.name, err)
		}
		if phase == PhaseSecrets {
			b.logger.Debug("Set %s=%s", e.name, logging.Secret(e.value))
		} else {
			b.logger.Debug("Set %s=%s", e.name, e.value)
		}
	}
	b.metrics.Published(string(phase), len(entries))
	return nil
}
