// Package resources discovers the per-handler hosts and queue URLs of a
// deployed project.
package resources

import (
	"context"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/internal/project"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the queue lookups in flight at once.
const DefaultConcurrency = 4

// StackOutputs reads the outputs of a deployed stack.
type StackOutputs interface {
	Describe(ctx context.Context, region, stack string) (map[string]string, error)
}

// QueueLookup resolves a queue name to its URL.
type QueueLookup interface {
	ResolveURL(ctx context.Context, region, queue string) (string, error)
}

// Resources maps handler keys to what was discovered for them. A handler
// whose lookup failed is present with an empty value.
type Resources struct {
	Hosts     map[string]string
	QueueURLs map[string]string
}

// Discovery looks up handler resources.
type Discovery struct {
	stacks      StackOutputs
	queues      QueueLookup
	logger      *logging.Logger
	metrics     *metrics.Metrics
	concurrency int
}

// Option configures a Discovery.
type Option func(*Discovery)

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Discovery) {
		d.logger = logger
	}
}

// WithMetrics records degraded lookups on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Discovery) {
		d.metrics = m
	}
}

// WithConcurrency bounds concurrent queue lookups. n < 1 means one at a time.
func WithConcurrency(n int) Option {
	return func(d *Discovery) {
		d.concurrency = max(n, 1)
	}
}

// New creates a Discovery.
func New(stacks StackOutputs, queues QueueLookup, opts ...Option) *Discovery {
	d := &Discovery{
		stacks:      stacks,
		queues:      queues,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.Nop()
	}
	return d
}

// Resolve discovers hosts and queue URLs for every handler of cfg. It never
// fails as a whole: a failed lookup leaves that handler empty.
func (d *Discovery) Resolve(ctx context.Context, cfg *project.Config) Resources {
	var res Resources
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Hosts = d.hosts(ctx, cfg)
	}()
	go func() {
		defer wg.Done()
		res.QueueURLs = d.queueURLs(ctx, cfg)
	}()
	wg.Wait()
	return res
}

func (d *Discovery) hosts(ctx context.Context, cfg *project.Config) map[string]string {
	hosts := map[string]string{}
	var pending []string

	for _, key := range cfg.HandlerKeys() {
		ag := cfg.Handlers[key].APIGateway
		switch {
		case ag == nil:
		case ag.Domain != "":
			hosts[key] = ag.Domain
		default:
			pending = append(pending, key)
		}
	}
	if len(pending) == 0 {
		return hosts
	}

	stack := cfg.Slug + "-container"
	outputs, err := d.stacks.Describe(ctx, cfg.Region, stack)
	if err != nil {
		d.logger.Warn("Failed to read outputs of stack %s: %v", stack, err)
	} else {
		d.logger.Debug("Stack %s has %d outputs", stack, len(outputs))
	}

	for _, key := range pending {
		endpoint, ok := outputs[OutputKey(key)]
		if !ok {
			if err == nil {
				d.logger.Warn("Stack %s has no output %s", stack, OutputKey(key))
			}
			d.metrics.LookupDegraded(metrics.LookupHost)
			hosts[key] = ""
			continue
		}
		hosts[key] = strings.TrimPrefix(endpoint, "https://")
	}
	return hosts
}

func (d *Discovery) queueURLs(ctx context.Context, cfg *project.Config) map[string]string {
	var mu sync.Mutex
	urls := map[string]string{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, key := range cfg.HandlerKeys() {
		sqs := cfg.Handlers[key].SQS
		if sqs == nil {
			continue
		}
		g.Go(func() error {
			url, err := d.queues.ResolveURL(gctx, cfg.Region, sqs.Name)
			if err != nil {
				d.logger.Warn("Failed to get queue URL for %s: %v", sqs.Name, err)
				d.metrics.LookupDegraded(metrics.LookupQueue)
				url = ""
			}
			mu.Lock()
			urls[key] = url
			mu.Unlock()
			// Failures stay local to their handler.
			return nil
		})
	}
	_ = g.Wait()
	return urls
}

// OutputKey is the stack output carrying the API endpoint of handler key.
func OutputKey(key string) string {
	return Capitalize(key) + "ApiEndpoint"
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
