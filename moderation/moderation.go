// Package moderation routes output text to a tenant's configured moderation
// backend. The runtime only consumes the Moderator contract; concrete
// backends register themselves by name.
package moderation

import (
	"context"
	"fmt"
	"sync"
)

// Action tells the caller what to do with flagged text.
type Action string

const (
	// ActionDirectOutput replaces the flagged text with a preset response.
	ActionDirectOutput Action = "direct_output"

	// ActionOverridden replaces the flagged text with backend-rewritten text.
	ActionOverridden Action = "overridden"
)

// Result is a moderation verdict for one piece of text.
type Result struct {
	Flagged        bool
	Action         Action
	PresetResponse string
	Text           string
}

// Moderator is the contract every moderation backend implements.
type Moderator interface {
	ModerateOutputs(ctx context.Context, text string) (*Result, error)
}

// Factory builds a Moderator for one tenant from that tenant's backend
// configuration.
type Factory func(tenantID string, config map[string]any) (Moderator, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a moderation backend available under a name. Backends
// usually call this from an init function.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// New builds the named backend for a tenant.
func New(name, tenantID string, config map[string]any) (Moderator, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("moderation: unknown backend %q", name)
	}
	return factory(tenantID, config)
}

// AppConfig is an application's moderation setup: which backend to use and
// its backend-specific configuration.
type AppConfig struct {
	Backend string
	Config  map[string]any
}

// ConfigSource resolves an application's moderation configuration. Where
// that configuration is stored is the caller's concern.
type ConfigSource interface {
	ModerationConfig(ctx context.Context, appID string) (*AppConfig, error)
}

// Service looks up an application's configured backend and moderates output
// text through it.
type Service struct {
	source ConfigSource
}

func NewService(source ConfigSource) *Service {
	return &Service{source: source}
}

func (s *Service) ModerateOutputs(ctx context.Context, appID, tenantID, text string) (*Result, error) {
	cfg, err := s.source.ModerationConfig(ctx, appID)
	if err != nil {
		return nil, fmt.Errorf("moderation: config for app %s: %w", appID, err)
	}

	m, err := New(cfg.Backend, tenantID, cfg.Config)
	if err != nil {
		return nil, err
	}
	return m.ModerateOutputs(ctx, text)
}
