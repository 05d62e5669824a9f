package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// AllowOrigins feeds the CORS middleware. Empty means the local dev origins.
	AllowOrigins []string `json:"allow_origins,omitempty" yaml:"allow_origins,omitempty"`
}

type ProviderConfig struct {
	Name string `json:"name" yaml:"name"`

	// Type is one of "oai_http", "gemini" or "mock".
	Type string `json:"type" yaml:"type"`

	// BaseURL is the upstream base URL (for "oai_http" providers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey is sent as `Authorization: Bearer <api_key>` for "oai_http" and used to build the
	// genai client for "gemini".
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequireAPIKey marks a provider as unconfigured (never contacted) while APIKey is empty.
	RequireAPIKey bool `json:"require_api_key,omitempty" yaml:"require_api_key,omitempty"`

	Model               string   `json:"model,omitempty" yaml:"model,omitempty"`
	ChatCompletionsPath string   `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`
	Timeout             Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// Response is the canned completion returned by "mock" providers.
	Response string `json:"response,omitempty" yaml:"response,omitempty"`
}

type GeneratorConfig struct {
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`

	// FallbackOnMalformed lets an unparseable completion from one provider fall through to the
	// next provider instead of failing the request.
	FallbackOnMalformed bool `json:"fallback_on_malformed" yaml:"fallback_on_malformed"`

	// PreviewChars bounds the raw completion attached to malformed-completion errors.
	PreviewChars int `json:"preview_chars" yaml:"preview_chars"`
}

type StoreConfig struct {
	// Driver is "none", "sqlite" or "postgres".
	Driver   string `json:"driver" yaml:"driver"`
	DSN      string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

type TelemetryConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	ServiceName  string  `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	Version      string  `json:"version,omitempty" yaml:"version,omitempty"`
	OTLPEndpoint string  `json:"otlp_endpoint,omitempty" yaml:"otlp_endpoint,omitempty"`
	Insecure     bool    `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRatio  float64 `json:"sample_ratio,omitempty" yaml:"sample_ratio,omitempty"`

	// MetricsEnabled exposes Prometheus text metrics on GET /metrics.
	MetricsEnabled bool `json:"metrics_enabled" yaml:"metrics_enabled"`
}

type Config struct {
	Env  string     `json:"env" yaml:"env"`
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Providers are tried in order; the first entry is the primary provider.
	Providers []ProviderConfig `json:"providers" yaml:"providers"`

	Landing   GeneratorConfig `json:"landing" yaml:"landing"`
	Bio       GeneratorConfig `json:"bio" yaml:"bio"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}
