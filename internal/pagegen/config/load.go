package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
	ProviderGemini = "gemini"

	TypeOAIHTTP = "oai_http"
	TypeGemini  = "gemini"
	TypeMock    = "mock"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		return d.parse(u, false)
	}
	return d.parse(s, true)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar, got yaml kind %d", value.Kind)
	}
	return d.parse(value.Value, value.Tag == "!!int")
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d *Duration) parse(s string, numeric bool) error {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if numeric {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("duration must be a string like \"5s\" or an int nanoseconds: %w", err)
		}
		d.Duration = time.Duration(n)
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func defaultProviders() []ProviderConfig {
	return []ProviderConfig{
		{
			Name:          ProviderOpenAI,
			Type:          TypeOAIHTTP,
			BaseURL:       "https://api.openai.com",
			Model:         "gpt-4o-mini",
			RequireAPIKey: true,
			Timeout:       Duration{Duration: 60 * time.Second},
		},
		{
			Name:    ProviderLocal,
			Type:    TypeOAIHTTP,
			BaseURL: "http://localhost:11434",
			Model:   "llama3",
			Timeout: Duration{Duration: 120 * time.Second},
		},
	}
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
		},
		Providers: defaultProviders(),
		Landing: GeneratorConfig{
			Temperature:         0.7,
			MaxTokens:           4000,
			FallbackOnMalformed: true,
			PreviewChars:        1000,
		},
		Bio: GeneratorConfig{
			Temperature:  0.7,
			MaxTokens:    1024,
			PreviewChars: 1000,
		},
		Store: StoreConfig{Driver: "none", LogLevel: "silent"},
		Telemetry: TelemetryConfig{
			ServiceName: "pagegen",
			SampleRatio: 0.1,
		},
	}
}

// Default returns the built-in configuration without reading files or the environment.
func Default() *Config {
	cfg := defaultConfig()
	if err := cfg.normalize(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads .env (if present), an optional YAML/JSON config file and environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("PAGEGEN_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
				p := filepath.Join(wd, "config", name)
				if _, err := os.Stat(p); err == nil {
					cfgPath = p
					break
				}
			}
		}
	}

	if cfgPath != "" {
		loaded, err := LoadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnv(cfg)

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a config file over the defaults. Providers listed in the file replace the
// default provider list.
func LoadFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	cfg.Providers = nil

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if len(cfg.Providers) == 0 {
		cfg.Providers = defaultProviders()
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := env("LOG_MODE"); v != "" {
		cfg.Env = v
	}
	if v := env("PAGEGEN_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	} else if v := env("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + v
	}

	if strings.EqualFold(env("PAGEGEN_PRIMARY_PROVIDER"), ProviderGemini) {
		gemini := ProviderConfig{
			Name:          ProviderGemini,
			Type:          TypeGemini,
			Model:         "gemini-2.0-flash",
			RequireAPIKey: true,
			Timeout:       Duration{Duration: 60 * time.Second},
		}
		if i := indexOf(cfg.Providers, ProviderGemini); i >= 0 {
			gemini = cfg.Providers[i]
			cfg.Providers = append(cfg.Providers[:i], cfg.Providers[i+1:]...)
		}
		if i := indexOf(cfg.Providers, ProviderOpenAI); i == 0 {
			cfg.Providers[0] = gemini
		} else {
			cfg.Providers = append([]ProviderConfig{gemini}, cfg.Providers...)
		}
	}

	overrideProvider(cfg, ProviderOpenAI, "OPENAI")
	overrideProvider(cfg, ProviderLocal, "LOCAL_LLM")
	overrideProvider(cfg, ProviderGemini, "GEMINI")

	if v := env("PAGEGEN_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := env("PAGEGEN_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}

	if v := env("OTEL_ENABLED"); v != "" {
		cfg.Telemetry.Enabled = parseBool(v)
	}
	if v := env("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := env("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		cfg.Telemetry.Insecure = parseBool(v)
	}
	if v := env("METRICS_ENABLED"); v != "" {
		cfg.Telemetry.MetricsEnabled = parseBool(v)
	}
	if v := env("OTEL_SAMPLER_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRatio = f
		}
	}
}

func overrideProvider(cfg *Config, name string, prefix string) {
	i := indexOf(cfg.Providers, name)
	if i < 0 {
		return
	}
	p := &cfg.Providers[i]
	if v := env(prefix + "_API_KEY"); v != "" {
		p.APIKey = v
	}
	if v := env(prefix + "_BASE_URL"); v != "" {
		p.BaseURL = v
	}
	if v := env(prefix + "_MODEL"); v != "" {
		p.Model = v
	}
}

func indexOf(providers []ProviderConfig, name string) int {
	for i, p := range providers {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return i
		}
	}
	return -1
}

func (cfg *Config) normalize() error {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}
	if cfg.HTTP.ShutdownTimeout.Duration <= 0 {
		cfg.HTTP.ShutdownTimeout = Duration{Duration: 15 * time.Second}
	}

	if len(cfg.Providers) == 0 {
		return errors.New("config must define at least one provider")
	}
	seen := map[string]bool{}
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.Model = strings.TrimSpace(p.Model)
		p.ChatCompletionsPath = strings.TrimSpace(p.ChatCompletionsPath)

		if p.Name == "" {
			p.Name = fmt.Sprintf("provider-%d", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case "openai_http", TypeOAIHTTP:
			p.Type = TypeOAIHTTP
			if p.BaseURL == "" {
				return fmt.Errorf("provider %q (oai_http) missing base_url", p.Name)
			}
			if p.ChatCompletionsPath == "" {
				p.ChatCompletionsPath = "/v1/chat/completions"
			}
		case TypeGemini:
			if p.Model == "" {
				p.Model = "gemini-2.0-flash"
			}
		case TypeMock:
		case "":
			return fmt.Errorf("provider %q missing type", p.Name)
		default:
			return fmt.Errorf("provider %q has unsupported type %q", p.Name, p.Type)
		}
		if p.Timeout.Duration < 0 {
			return fmt.Errorf("provider %q invalid timeout", p.Name)
		}
		if p.Timeout.Duration == 0 {
			p.Timeout = Duration{Duration: 60 * time.Second}
		}
	}

	for _, g := range []struct {
		name string
		cfg  *GeneratorConfig
	}{{"landing", &cfg.Landing}, {"bio", &cfg.Bio}} {
		if g.cfg.MaxTokens <= 0 {
			return fmt.Errorf("%s.max_tokens must be positive", g.name)
		}
		if g.cfg.Temperature < 0 || g.cfg.Temperature > 2 {
			return fmt.Errorf("%s.temperature must be within [0, 2]", g.name)
		}
		if g.cfg.PreviewChars <= 0 {
			g.cfg.PreviewChars = 1000
		}
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch cfg.Store.Driver {
	case "", "none":
		cfg.Store.Driver = "none"
	case "sqlite":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			cfg.Store.DSN = "pagegen.db"
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			return errors.New("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Telemetry.SampleRatio < 0 {
		cfg.Telemetry.SampleRatio = 0
	}
	if cfg.Telemetry.SampleRatio > 1 {
		cfg.Telemetry.SampleRatio = 1
	}
	if strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		cfg.Telemetry.ServiceName = "pagegen"
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}
