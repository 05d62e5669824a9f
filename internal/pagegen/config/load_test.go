package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PAGEGEN_CONFIG_PATH", "LOG_MODE", "PAGEGEN_HTTP_ADDR", "PORT", "PAGEGEN_PRIMARY_PROVIDER",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
		"LOCAL_LLM_API_KEY", "LOCAL_LLM_BASE_URL", "LOCAL_LLM_MODEL",
		"GEMINI_API_KEY", "GEMINI_BASE_URL", "GEMINI_MODEL",
		"PAGEGEN_STORE_DRIVER", "PAGEGEN_STORE_DSN",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SAMPLER_RATIO",
		"METRICS_ENABLED",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("providers=%d", len(cfg.Providers))
	}
	primary := cfg.Providers[0]
	if primary.Name != ProviderOpenAI || !primary.RequireAPIKey || primary.APIKey != "" {
		t.Fatalf("unexpected primary: %+v", primary)
	}
	if primary.ChatCompletionsPath != "/v1/chat/completions" {
		t.Fatalf("chat path=%q", primary.ChatCompletionsPath)
	}
	if cfg.Landing.MaxTokens != 4000 || cfg.Bio.MaxTokens != 1024 {
		t.Fatalf("max tokens landing=%d bio=%d", cfg.Landing.MaxTokens, cfg.Bio.MaxTokens)
	}
	if cfg.Landing.Temperature != 0.7 || cfg.Bio.Temperature != 0.7 {
		t.Fatalf("temperatures: %+v %+v", cfg.Landing, cfg.Bio)
	}
	if cfg.Store.Driver != "none" {
		t.Fatalf("store driver=%q", cfg.Store.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example.com/")
	t.Setenv("LOCAL_LLM_MODEL", "mistral")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("addr=%q", cfg.HTTP.Addr)
	}
	if cfg.Providers[0].APIKey != "sk-test" || cfg.Providers[0].BaseURL != "https://proxy.example.com" {
		t.Fatalf("primary=%+v", cfg.Providers[0])
	}
	if cfg.Providers[1].Model != "mistral" {
		t.Fatalf("secondary model=%q", cfg.Providers[1].Model)
	}
}

func TestLoadGeminiPrimary(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PAGEGEN_PRIMARY_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Providers[0].Type != TypeGemini || cfg.Providers[0].APIKey != "g-key" {
		t.Fatalf("primary=%+v", cfg.Providers[0])
	}
	if len(cfg.Providers) != 2 || cfg.Providers[1].Name != ProviderLocal {
		t.Fatalf("providers=%+v", cfg.Providers)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "pagegen.yaml")
	body := `
env: production
http:
  addr: ":7000"
  shutdown_timeout: 3s
providers:
  - name: local
    type: oai_http
    base_url: http://llm:8000/
    model: qwen
    timeout: 30s
landing:
  temperature: 0.2
  max_tokens: 2000
bio:
  temperature: 0.5
  max_tokens: 512
store:
  driver: sqlite
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PAGEGEN_CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Env != "production" || cfg.HTTP.Addr != ":7000" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.HTTP.ShutdownTimeout.Duration != 3*time.Second {
		t.Fatalf("shutdown=%v", cfg.HTTP.ShutdownTimeout.Duration)
	}
	if cfg.HTTP.MaxRequestBytes != 1<<20 {
		t.Fatalf("max bytes default lost: %d", cfg.HTTP.MaxRequestBytes)
	}
	if len(cfg.Providers) != 1 || cfg.Providers[0].BaseURL != "http://llm:8000" {
		t.Fatalf("providers=%+v", cfg.Providers)
	}
	if cfg.Providers[0].Timeout.Duration != 30*time.Second {
		t.Fatalf("timeout=%v", cfg.Providers[0].Timeout.Duration)
	}
	if cfg.Landing.MaxTokens != 2000 || cfg.Bio.MaxTokens != 512 {
		t.Fatalf("generators landing=%+v bio=%+v", cfg.Landing, cfg.Bio)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "pagegen.db" {
		t.Fatalf("store=%+v", cfg.Store)
	}
}

func TestLoadJSONFileRejectsUnknownProviderType(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	b, _ := json.Marshal(map[string]any{
		"providers": []map[string]any{{"name": "x", "type": "carrier_pigeon"}},
	})
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("PAGEGEN_CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported provider type")
	}
}

func TestDurationUnmarshalJSON(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"1500ms"`), &d); err != nil || d.Duration != 1500*time.Millisecond {
		t.Fatalf("string form: d=%v err=%v", d.Duration, err)
	}
	if err := json.Unmarshal([]byte(`2000000000`), &d); err != nil || d.Duration != 2*time.Second {
		t.Fatalf("int form: d=%v err=%v", d.Duration, err)
	}
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNormalizeRejectsPostgresWithoutDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Driver = "postgres"
	if err := cfg.normalize(); err == nil {
		t.Fatalf("expected error")
	}
}
