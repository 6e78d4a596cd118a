package bootstrap

import (
	"os"

	"go.uber.org/atomic"
)

// NoStage is the stage used when none is given and POCKET_STAGE is unset.
const NoStage = "__none__"

// Environment markers shared with child processes.
const (
	EnvStage           = "POCKET_STAGE"
	EnvSecretsLoaded   = "POCKET_ENVS_SECRETS_LOADED"
	EnvResourcesLoaded = "POCKET_ENVS_AWS_RESOURCES_LOADED"
)

// Phase names one bootstrap phase.
type Phase string

const (
	PhaseSecrets   Phase = "secrets"
	PhaseResources Phase = "resources"
)

// Session remembers which phases already ran. Each phase runs at most once
// per session; Reset starts over.
type Session struct {
	secretsLoaded   *atomic.Bool
	resourcesLoaded *atomic.Bool

	inheritMarkers bool
	getenv         func(string) string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInheritedMarkers makes the session treat a phase as done when its
// marker is already "true" in the environment, as it is in a child of a
// bootstrapped process.
func WithInheritedMarkers() SessionOption {
	return func(s *Session) {
		s.inheritMarkers = true
	}
}

// WithGetenv replaces os.Getenv for stage and marker lookups.
func WithGetenv(getenv func(string) string) SessionOption {
	return func(s *Session) {
		s.getenv = getenv
	}
}

// NewSession creates a Session with no phase run yet.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		secretsLoaded:   atomic.NewBool(false),
		resourcesLoaded: atomic.NewBool(false),
		getenv:          os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Claim marks phase as started and reports whether the caller should run it.
func (s *Session) Claim(phase Phase) bool {
	flag, marker := s.flag(phase)
	if s.inheritMarkers && s.getenv(marker) == "true" {
		flag.Store(true)
		return false
	}
	return flag.CompareAndSwap(false, true)
}

// Loaded reports whether phase already started in this session.
func (s *Session) Loaded(phase Phase) bool {
	flag, _ := s.flag(phase)
	return flag.Load()
}

// Reset forgets every phase.
func (s *Session) Reset() {
	s.secretsLoaded.Store(false)
	s.resourcesLoaded.Store(false)
}

// Stage picks explicit when set, else POCKET_STAGE, else NoStage.
func (s *Session) Stage(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if stage := s.getenv(EnvStage); stage != "" {
		return stage
	}
	return NoStage
}

func (s *Session) flag(phase Phase) (*atomic.Bool, string) {
	if phase == PhaseSecrets {
		return s.secretsLoaded, EnvSecretsLoaded
	}
	return s.resourcesLoaded, EnvResourcesLoaded
}
