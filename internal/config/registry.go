package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/clayvoice/clayvoice/pkg/provider/voice"
)

// ErrProviderNotRegistered is returned by [Registry.CreateVoice] when no
// factory is registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// VoiceFactory constructs a voice provider from its configuration block.
type VoiceFactory func(cfg VoiceConfig) (voice.Provider, error)

// Registry maps provider names to constructors so the entry point can wire
// backends by configuration alone. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	voice map[string]VoiceFactory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{voice: make(map[string]VoiceFactory)}
}

// RegisterVoice registers a factory under name, replacing any previous
// registration.
func (r *Registry) RegisterVoice(name string, f VoiceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.voice[name] = f
}

// CreateVoice instantiates the voice provider named in cfg.Provider.
// Returns [ErrProviderNotRegistered] when the name is unknown.
func (r *Registry) CreateVoice(cfg VoiceConfig) (voice.Provider, error) {
	r.mu.RLock()
	f, ok := r.voice[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: voice provider %q", ErrProviderNotRegistered, cfg.Provider)
	}
	return f(cfg)
}
