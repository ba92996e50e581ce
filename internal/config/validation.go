package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/logging"
	"github.com/conneroisu/jsxlive/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
		}
	}

	return builder.String()
}

// Err folds the errors into one configuration error, or returns nil.
func (vr *ValidationResult) Err() error {
	if !vr.HasErrors() {
		return nil
	}

	collection := &jsxerrors.ValidationErrorCollection{}
	for _, e := range vr.Errors {
		collection.AddField(e.Field, e.Value, e.Message, e.Suggestions...)
	}

	err := collection.ToJSXLiveError()
	err.Type = jsxerrors.ErrorTypeConfig
	err.Code = jsxerrors.ErrCodeConfigInvalid

	return err
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Errors = append(vr.Errors, ValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Value: value, Message: message})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServer(&config.Server, result)
	validatePreview(&config.Preview, result)
	validateBridge(&config.Bridge, result)
	validateGenerator(&config.Generator, result)
	validateSession(&config.Session, result)
	validateLog(&config.Log, result)

	if config.Watch.Debounce < 0 {
		result.addError("watch.debounce", config.Watch.Debounce, "debounce cannot be negative")
	}
	if config.Probe.Timeout < 0 {
		result.addError("probe.timeout", config.Probe.Timeout, "timeout cannot be negative")
	}

	result.Valid = !result.HasErrors()

	return result
}

var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}

func validateServer(config *ServerConfig, result *ValidationResult) {
	// Port 0 lets the system pick one.
	if config.Port < 0 || config.Port > 65535 {
		result.addError("server.port", config.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			"Use a port between 1024-65535 for non-privileged access")
	}

	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			result.addError("server.host", config.Host,
				"host contains dangerous character: "+char)

			break
		}
	}

	if config.Host == "0.0.0.0" || config.Host == "::" {
		result.addWarning("server.host", config.Host, "preview server is reachable from other machines")
	}

	for _, origin := range config.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			result.addError("server.allowed_origins", origin, "empty origin pattern")
		}
	}
}

func validatePreview(config *PreviewConfig, result *ValidationResult) {
	for _, src := range config.RuntimeScripts {
		if err := validation.ValidateScriptSource(src); err != nil {
			result.addError("preview.runtime_scripts", src,
				"runtime script must be an http(s) URL or an absolute path: "+err.Error(),
				"Pin a CDN build such as https://unpkg.com/react@18.3.1/umd/react.production.min.js")
		}
	}

	for field, path := range map[string]string{
		"preview.props_file": config.PropsFile,
		"preview.jsx_file":   config.JSXFile,
		"preview.css_file":   config.CSSFile,
	} {
		if path == "" {
			continue
		}
		if err := validatePath(path); err != nil {
			result.addError(field, path, err.Error())
		}
	}

	if config.CSSFile != "" && config.JSXFile == "" {
		result.addError("preview.css_file", config.CSSFile,
			"css_file requires jsx_file", "Set preview.jsx_file to serve a component from disk")
	}
}

func validateBridge(config *BridgeConfig, result *ValidationResult) {
	if config.MailboxSize < 1 {
		result.addError("bridge.mailbox_size", config.MailboxSize, "mailbox size must be positive")
	}
	if config.MessagesPerSecond <= 0 {
		result.addError("bridge.messages_per_second", config.MessagesPerSecond, "rate must be positive")
	}
	if config.Burst < 1 {
		result.addError("bridge.burst", config.Burst, "burst must be positive")
	}
}

func validateGenerator(config *GeneratorConfig, result *ValidationResult) {
	switch config.Provider {
	case ProviderNone:
		return
	case ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		result.addError("generator.provider", config.Provider, "unknown provider",
			"Use one of: openai, ollama, gemini, or leave empty to disable generation")

		return
	}

	if config.Temperature < 0 || config.Temperature > 2 {
		result.addError("generator.temperature", config.Temperature, "temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		result.addError("generator.max_tokens", config.MaxTokens, "max_tokens cannot be negative")
	}
	if config.BaseURL != "" {
		if u, err := url.Parse(config.BaseURL); err != nil || u.Host == "" {
			result.addError("generator.base_url", config.BaseURL, "base_url must be an absolute URL")
		}
	}
	if config.APIKey == "" && config.Provider != ProviderOllama {
		result.addWarning("generator.api_key", "", "no api_key set; the provider's environment variable will be used")
	}
}

func validateSession(config *SessionConfig, result *ValidationResult) {
	switch config.Driver {
	case DriverMemory:
	case DriverSQLite:
		if config.Path == "" {
			result.addError("session.path", config.Path, "sqlite driver requires a path")
		}
	default:
		result.addError("session.driver", config.Driver, "unknown session driver",
			"Use memory or sqlite")
	}
}

func validateLog(config *LogConfig, result *ValidationResult) {
	switch strings.ToLower(config.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		result.addError("log.level", config.Level, "unknown log level", "Use debug, info, warn or error")
	}

	switch config.Format {
	case "text", "json":
	default:
		result.addError("log.format", config.Format, "unknown log format", "Use text or json")
	}
}

// validatePath validates a file path for security
func validatePath(path string) error {
	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	for _, char := range dangerousChars[:len(dangerousChars)-1] {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// LoggerConfig converts the log section into logger settings.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(c.Log.Level)
	lc.Format = c.Log.Format

	return lc
}
