// Package config provides configuration management for jsxlive using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// Configuration is read from .jsxlive.yml, overridden by JSXLIVE_ prefixed
// environment variables and finally by flags. Load applies defaults for
// anything left unset and validates the result.
package config

import (
	"time"

	"github.com/spf13/viper"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
)

// Config is the complete jsxlive configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server" json:"server"`
	Preview   PreviewConfig   `mapstructure:"preview" yaml:"preview" json:"preview"`
	Bridge    BridgeConfig    `mapstructure:"bridge" yaml:"bridge" json:"bridge"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator" json:"generator"`
	Session   SessionConfig   `mapstructure:"session" yaml:"session" json:"session"`
	Watch     WatchConfig     `mapstructure:"watch" yaml:"watch" json:"watch"`
	Probe     ProbeConfig     `mapstructure:"probe" yaml:"probe" json:"probe"`
	Log       LogConfig       `mapstructure:"log" yaml:"log" json:"log"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host" json:"host"`
	Port           int      `mapstructure:"port" yaml:"port" json:"port"`
	Open           bool     `mapstructure:"open" yaml:"open" json:"open"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowedOrigins"`
}

type PreviewConfig struct {
	ShowGrid       bool     `mapstructure:"show_grid" yaml:"show_grid" json:"showGrid"`
	RuntimeScripts []string `mapstructure:"runtime_scripts" yaml:"runtime_scripts" json:"runtimeScripts"`
	PropsFile      string   `mapstructure:"props_file" yaml:"props_file" json:"propsFile"`
	JSXFile        string   `mapstructure:"jsx_file" yaml:"jsx_file" json:"jsxFile"`
	CSSFile        string   `mapstructure:"css_file" yaml:"css_file" json:"cssFile"`
}

type BridgeConfig struct {
	MailboxSize       int     `mapstructure:"mailbox_size" yaml:"mailbox_size" json:"mailboxSize"`
	MessagesPerSecond float64 `mapstructure:"messages_per_second" yaml:"messages_per_second" json:"messagesPerSecond"`
	Burst             int     `mapstructure:"burst" yaml:"burst" json:"burst"`
}

// GeneratorConfig selects the model provider. An empty provider disables
// generation.
type GeneratorConfig struct {
	Provider    string        `mapstructure:"provider" yaml:"provider" json:"provider"`
	Model       string        `mapstructure:"model" yaml:"model" json:"model"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url" json:"baseURL"`
	APIKey      string        `mapstructure:"api_key" yaml:"api_key" json:"-"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" json:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens" json:"maxTokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type SessionConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"`
	Path   string `mapstructure:"path" yaml:"path" json:"path"`
}

type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
}

type ProbeConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	Bin     string        `mapstructure:"bin" yaml:"bin" json:"bin"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Generator providers.
const (
	ProviderNone   = ""
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Session drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Defaults.
const (
	DefaultHost              = "localhost"
	DefaultPort              = 5173
	DefaultMailboxSize       = 256
	DefaultMessagesPerSecond = 50
	DefaultBurst             = 100
	DefaultTemperature       = 0.3
	DefaultMaxTokens         = 4096
	DefaultGeneratorTimeout  = 2 * time.Minute
	DefaultSessionPath       = ".jsxlive/sessions.db"
	DefaultDebounce          = 150 * time.Millisecond
	DefaultProbeTimeout      = 30 * time.Second
	DefaultOllamaBaseURL     = "http://localhost:11434/v1"
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3.1",
	ProviderGemini: "gemini-2.0-flash",
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v, applies defaults and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, jsxerrors.NewConfigError(jsxerrors.ErrCodeConfigInvalid, "failed to decode configuration").
			WithContext("cause", err.Error())
	}

	applyDefaults(v, &config)

	result := ValidateConfigWithDetails(&config)
	if result.HasErrors() {
		return nil, result.Err()
	}

	return &config, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	var config Config
	applyDefaults(viper.New(), &config)

	return &config
}

func applyDefaults(v *viper.Viper, config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if !v.IsSet("server.port") {
		config.Server.Port = DefaultPort
	}

	if !v.IsSet("preview.show_grid") {
		config.Preview.ShowGrid = true
	}

	if config.Bridge.MailboxSize == 0 {
		config.Bridge.MailboxSize = DefaultMailboxSize
	}
	if config.Bridge.MessagesPerSecond == 0 {
		config.Bridge.MessagesPerSecond = DefaultMessagesPerSecond
	}
	if config.Bridge.Burst == 0 {
		config.Bridge.Burst = DefaultBurst
	}

	if config.Generator.Provider != ProviderNone {
		if config.Generator.Model == "" {
			config.Generator.Model = defaultModels[config.Generator.Provider]
		}
		if config.Generator.Provider == ProviderOllama && config.Generator.BaseURL == "" {
			config.Generator.BaseURL = DefaultOllamaBaseURL
		}
	}
	if !v.IsSet("generator.temperature") {
		config.Generator.Temperature = DefaultTemperature
	}
	if config.Generator.MaxTokens == 0 {
		config.Generator.MaxTokens = DefaultMaxTokens
	}
	if config.Generator.Timeout == 0 {
		config.Generator.Timeout = DefaultGeneratorTimeout
	}

	if config.Session.Driver == "" {
		config.Session.Driver = DriverMemory
	}
	if config.Session.Driver == DriverSQLite && config.Session.Path == "" {
		config.Session.Path = DefaultSessionPath
	}

	if !v.IsSet("watch.enabled") {
		config.Watch.Enabled = true
	}
	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}

	if config.Probe.Timeout == 0 {
		config.Probe.Timeout = DefaultProbeTimeout
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// ServingFromFiles reports whether the preview component is loaded from disk.
func (c *Config) ServingFromFiles() bool {
	return c.Preview.JSXFile != ""
}
