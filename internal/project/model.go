// Package project resolves a pocket.toml document for one stage into an
// immutable, fully typed configuration.
package project

import (
	"sort"

	"github.com/worgue/magic-pocket/pkg/secretstore"
)

// Defaults applied when the document leaves a field out.
const (
	DefaultProjectName     = "unknown"
	DefaultNamespace       = "pocket"
	DefaultPrefixTemplate  = "{stage}-{project}-{namespace}-"
	DefaultPocketKeyFormat = "{stage}-{project}-{namespace}"
	DefaultStore           = secretstore.SecretsManager
)

// General holds the [general] section.
type General struct {
	Region         string   `yaml:"region"`
	ProjectName    string   `yaml:"project_name"`
	Namespace      string   `yaml:"namespace"`
	PrefixTemplate string   `yaml:"prefix_template"`
	Stages         []string `yaml:"stages,omitempty"`
}

// Config is the resolved configuration for a single stage. It is built fresh
// by Resolve and never mutated afterwards.
type Config struct {
	General `yaml:",inline"`

	Stage          string                 `yaml:"stage"`
	Slug           string                 `yaml:"slug"`
	ResourcePrefix string                 `yaml:"resource_prefix"`
	Secrets        *SecretsSpec           `yaml:"secrets,omitempty"`
	Handlers       map[string]HandlerSpec `yaml:"handlers,omitempty"`
}

// HandlerKeys returns the handler names in sorted order.
func (c *Config) HandlerKeys() []string {
	keys := make([]string, 0, len(c.Handlers))
	for k := range c.Handlers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SecretsSpec describes where managed and user secrets come from.
type SecretsSpec struct {
	Store       secretstore.Kind             `yaml:"store"`
	PocketKey   string                       `yaml:"pocket_key"`
	Stage       string                       `yaml:"stage"`
	ProjectName string                       `yaml:"project_name"`
	Region      string                       `yaml:"region"`
	Managed     map[string]ManagedSecretSpec `yaml:"managed,omitempty"`
	User        map[string]UserSecretSpec    `yaml:"user,omitempty"`
}

// Scope returns the bulk-fetch scope for managed secrets.
func (s *SecretsSpec) Scope() secretstore.Scope {
	return secretstore.Scope{
		Key:     s.PocketKey,
		Stage:   s.Stage,
		Project: s.ProjectName,
	}
}

// ManagedSecretSpec declares a managed secret's type and its expansion options.
type ManagedSecretSpec struct {
	Type    string            `yaml:"type"`
	Options map[string]string `yaml:"options,omitempty"`
}

// UserSecretSpec points at an explicitly named remote secret.
type UserSecretSpec struct {
	Name  string            `yaml:"name"`
	Store *secretstore.Kind `yaml:"store,omitempty"` // nil means the parent SecretsSpec store
}

// EffectiveStore resolves the store override against the parent store.
func (u UserSecretSpec) EffectiveStore(parent secretstore.Kind) secretstore.Kind {
	if u.Store != nil {
		return *u.Store
	}
	return parent
}

// HandlerSpec is a single container handler.
type HandlerSpec struct {
	APIGateway *APIGatewaySpec `yaml:"apigateway,omitempty"`
	SQS        *SQSSpec        `yaml:"sqs,omitempty"`
	Timeout    *int64          `yaml:"timeout,omitempty"`
}

// APIGatewaySpec is the handler's HTTP front. An empty Domain means the host
// has to be discovered from the stack outputs.
type APIGatewaySpec struct {
	Domain string `yaml:"domain,omitempty"`
}

// SQSSpec carries the derived queue name.
type SQSSpec struct {
	Name string `yaml:"name"`
}
