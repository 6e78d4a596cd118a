// Package config holds the runtime configuration of the pocket-env CLI.
package config

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/worgue/magic-pocket/internal/document"
	dserrors "github.com/worgue/magic-pocket/internal/errors"
	"github.com/worgue/magic-pocket/internal/logging"
	"github.com/worgue/magic-pocket/internal/metrics"
	"github.com/worgue/magic-pocket/internal/project"
	"github.com/worgue/magic-pocket/internal/providers"
)

// Environment variables read when the matching flag is not given.
const (
	EnvConfig      = "POCKET_CONFIG"
	EnvAWSEndpoint = "POCKET_AWS_ENDPOINT"
	EnvAWSProfile  = "AWS_PROFILE"

	// Static credentials for an endpoint override such as LocalStack. They
	// have no flag so they stay out of process listings.
	EnvAWSAccessKeyID     = "POCKET_AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "POCKET_AWS_SECRET_ACCESS_KEY"
)

// Config holds the runtime configuration
type Config struct {
	Path            string // Document path; empty means search upward from Dir
	Dir             string // Search start; empty means the working directory
	Stage           string
	Endpoint        string // AWS endpoint override, for LocalStack
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
	CallTimeout     time.Duration // Per store call; zero leaves calls unbounded
	Logger          *logging.Logger
	Metrics         *metrics.Metrics
	Factory         *providers.Factory // Built from the fields above when nil

	once        sync.Once
	resolved    string
	err         error
	factoryOnce sync.Once
}

// FromEnv fills the environment-backed fields from getenv.
func FromEnv(getenv func(string) string) *Config {
	return &Config{
		Path:            getenv(EnvConfig),
		Endpoint:        getenv(EnvAWSEndpoint),
		Profile:         getenv(EnvAWSProfile),
		AccessKeyID:     getenv(EnvAWSAccessKeyID),
		SecretAccessKey: getenv(EnvAWSSecretAccessKey),
	}
}

// DocumentPath returns the document to load, searching upward when Path is
// empty. The result is cached.
func (c *Config) DocumentPath() (string, error) {
	c.once.Do(func() {
		if c.Path != "" {
			c.resolved = c.Path
			return
		}
		dir := c.Dir
		if dir == "" {
			wd, err := os.Getwd()
			if err != nil {
				c.err = err
				return
			}
			dir = wd
		}
		path, err := document.Find(dir)
		if errors.Is(err, document.ErrNotFound) {
			c.err = dserrors.ConfigError{
				Field:      "path",
				Value:      dir,
				Message:    "no pocket.toml found in this directory or any parent",
				Suggestion: "Run from the project directory or pass --config",
			}
			return
		}
		c.resolved, c.err = path, err
	})
	return c.resolved, c.err
}

// Load resolves the document for stage. It satisfies bootstrap.Loader.
func (c *Config) Load(stage string) (*project.Config, error) {
	path, err := c.DocumentPath()
	if err != nil {
		return nil, err
	}
	c.logger().Debug("Resolving %s for stage %s", path, stage)
	return project.LoadFile(path, stage)
}

// LoadGeneral decodes only the general section of the document.
func (c *Config) LoadGeneral() (*project.Config, error) {
	path, err := c.DocumentPath()
	if err != nil {
		return nil, err
	}
	return project.LoadGeneralFile(path)
}

// AWSOptions returns the AWS client overrides.
func (c *Config) AWSOptions() providers.AWSOptions {
	return providers.AWSOptions{
		Endpoint:        c.Endpoint,
		Profile:         c.Profile,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
	}
}

// Providers returns the AWS client factory, building it on first use.
func (c *Config) Providers() *providers.Factory {
	c.factoryOnce.Do(func() {
		if c.Factory == nil {
			c.Factory = providers.NewFactory(
				providers.WithAWSOptions(c.AWSOptions()),
				providers.WithLogger(c.logger()),
				providers.WithMetrics(c.Metrics),
			)
		}
	})
	return c.Factory
}

func (c *Config) logger() *logging.Logger {
	if c.Logger == nil {
		return logging.Nop()
	}
	return c.Logger
}
