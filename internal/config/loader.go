package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clayvoice/clayvoice/internal/auth"
)

// ValidVoiceProviders lists known voice backend names. Used by [Validate] to
// warn about unrecognised provider names.
var ValidVoiceProviders = []string{"glm", "mock"}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if name := cfg.Voice.Provider; name != "" && !slices.Contains(ValidVoiceProviders, name) {
		slog.Warn("unknown voice provider name — may be a typo or third-party provider",
			"name", name,
			"known", ValidVoiceProviders,
		)
	}
	if cfg.Voice.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("voice.request_timeout %v must not be negative", cfg.Voice.RequestTimeout))
	}

	if cfg.Audio.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate %d must not be negative", cfg.Audio.SampleRate))
	}
	if cfg.Audio.BlockSize < 0 {
		errs = append(errs, fmt.Errorf("audio.block_size %d must not be negative", cfg.Audio.BlockSize))
	}

	if cfg.Settings.Theme != "" && !cfg.Settings.Theme.IsValid() {
		errs = append(errs, fmt.Errorf("settings.theme %q is invalid; valid values: clay-light, clay-dark, mint-fresh, custom", cfg.Settings.Theme))
	}
	if cfg.Settings.CustomCSS != "" && cfg.Settings.Theme != ThemeCustom {
		slog.Warn("settings.custom_css is set but settings.theme is not \"custom\"; the presentation layer may ignore it")
	}

	// Key format checks — rotation tolerates malformed keys but every turn
	// using one will fail to sign.
	if keys := cfg.Settings.APIKeys; strings.TrimSpace(keys) == "" {
		slog.Warn("settings.api_keys is empty; the built-in default key will be used")
	} else {
		for _, k := range auth.SplitKeys(keys) {
			if !strings.Contains(k, ".") {
				errs = append(errs, fmt.Errorf("settings.api_keys entry %q is not of the form \"<id>.<secret>\"", k))
			}
		}
	}

	return errors.Join(errs...)
}
