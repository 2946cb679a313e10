// Package config provides the configuration schema, loader, file watcher,
// and provider registry for the Clayvoice client.
package config

import "time"

// LogLevel controls log verbosity for the client.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Theme selects the presentation layer's colour scheme. The core never
// interprets it; it is carried read-only for the UI collaborator.
type Theme string

const (
	ThemeClayLight Theme = "clay-light"
	ThemeClayDark  Theme = "clay-dark"
	ThemeMintFresh Theme = "mint-fresh"
	ThemeCustom    Theme = "custom"
)

// IsValid reports whether t is a recognised theme.
func (t Theme) IsValid() bool {
	switch t {
	case ThemeClayLight, ThemeClayDark, ThemeMintFresh, ThemeCustom:
		return true
	}
	return false
}

// Config is the root configuration structure for Clayvoice.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig `yaml:"server"`
	Voice    VoiceConfig  `yaml:"voice"`
	Audio    AudioConfig  `yaml:"audio"`
	Settings Settings     `yaml:"settings"`
}

// ServerConfig holds logging and observability-listener settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the metrics/health listener binds to
	// (e.g., ":9090"). Empty disables the listener.
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// VoiceConfig selects and configures the remote voice model backend.
type VoiceConfig struct {
	// Provider selects the registered voice backend (e.g., "glm").
	Provider string `yaml:"provider"`

	// Endpoint overrides the backend's default API endpoint.
	// Leave empty to use the backend's built-in default.
	Endpoint string `yaml:"endpoint"`

	// Model selects a specific model within the backend (e.g., "glm-4-voice").
	Model string `yaml:"model"`

	// RequestTimeout bounds one request/response exchange. Zero means no
	// client-side timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AudioConfig holds capture and playback parameters.
type AudioConfig struct {
	// SampleRate is the capture rate in Hz. Zero falls back to the device's
	// reported rate (and ultimately 24000).
	SampleRate int `yaml:"sample_rate"`

	// BlockSize is the per-callback sample count. Zero uses the default 4096.
	BlockSize int `yaml:"block_size"`

	// InputFile is the PCM or WAV file the capture device streams from.
	InputFile string `yaml:"input_file"`

	// PlayerCommand renders reply audio by piping it to this command's stdin
	// (e.g. "mpv -"). Empty writes replies to OutputDir instead.
	PlayerCommand string `yaml:"player_command"`

	// OutputDir receives reply audio files when no player command is set.
	// Defaults to "replies".
	OutputDir string `yaml:"output_dir"`
}

// Settings is the user-editable snapshot read by the core on each turn. It is
// owned by the settings collaborator; the core never writes it.
type Settings struct {
	// APIKeys is a comma-separated list of "<id>.<secret>" credentials,
	// rotated round-robin across turns. Empty falls back to the built-in key.
	APIKeys string `yaml:"api_keys"`

	// SystemPrompt is the persona instruction sent as the leading system
	// message.
	SystemPrompt string `yaml:"system_prompt"`

	// KnowledgeBase is free-form context appended to the system prompt under a
	// labeled section header.
	KnowledgeBase string `yaml:"knowledge_base"`

	// Theme selects the UI colour scheme. Carried for the presentation layer.
	Theme Theme `yaml:"theme"`

	// CustomCSS is extra styling injected by the presentation layer when Theme
	// is "custom". Carried verbatim.
	CustomCSS string `yaml:"custom_css"`
}
