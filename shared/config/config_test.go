package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gemini-key
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q, want default", cfg.AI.Model)
	}
	if cfg.Schedule != "0 0 6 * * *" {
		t.Errorf("schedule = %q, want default", cfg.Schedule)
	}
	if cfg.Pipeline.Language != "en" || cfg.Pipeline.MaxSearchResults != 10 || cfg.Pipeline.FanOut != 4 {
		t.Errorf("unexpected pipeline defaults: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.SentimentSpanChars != 2000 || cfg.Pipeline.CombinedTextChars != 10000 {
		t.Errorf("unexpected text limits: %+v", cfg.Pipeline)
	}
	if cfg.Storage.Path != "data/products.db" {
		t.Errorf("storage path = %q, want default", cfg.Storage.Path)
	}
	if cfg.Monitoring.HealthPort != 8080 {
		t.Errorf("health port = %d, want 8080", cfg.Monitoring.HealthPort)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  max_search_results: 5
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("YOUTUBE_API_KEY", "yt-from-env")
	t.Setenv("GEMINI_API_KEY", "gemini-from-env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.YouTube.APIKey != "yt-from-env" {
		t.Errorf("youtube key = %q, want env value", cfg.YouTube.APIKey)
	}
	if cfg.AI.GeminiAPIKey != "gemini-from-env" {
		t.Errorf("gemini key = %q, want env value", cfg.AI.GeminiAPIKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	if cfg.Pipeline.MaxSearchResults != 5 {
		t.Errorf("max search results = %d, want file value 5", cfg.Pipeline.MaxSearchResults)
	}
}

func TestLoadFileValuesWinOverEnv(t *testing.T) {
	path := writeConfig(t, `
youtube:
  api_key: yt-from-file
ai:
  gemini_api_key: gemini-from-file
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("YOUTUBE_API_KEY", "yt-from-env")
	t.Setenv("GEMINI_API_KEY", "gemini-from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.YouTube.APIKey != "yt-from-file" {
		t.Errorf("youtube key = %q, file value should win", cfg.YouTube.APIKey)
	}
}

func TestLoadParsesProductsAndStores(t *testing.T) {
	path := writeConfig(t, `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gemini-key
scrape:
  stores:
    shopA:
      price_selector: ".price"
      currency: JPY
products:
  - id: aurora-x1
    name: Aurora X1
    brand: Aurora
    category: headphones
    query: aurora x1 headphones review
    stores:
      - store: shopA
        url: https://a.example/aurora-x1
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	profile, ok := cfg.Scrape.Stores["shopA"]
	if !ok || profile.PriceSelector != ".price" || profile.Currency != "JPY" {
		t.Errorf("unexpected store profile: %+v", cfg.Scrape.Stores)
	}

	if len(cfg.Products) != 1 {
		t.Fatalf("got %d products, want 1", len(cfg.Products))
	}
	p := cfg.Products[0]
	if p.ID != "aurora-x1" || p.Name != "Aurora X1" || p.Query != "aurora x1 headphones review" {
		t.Errorf("unexpected product seed: %+v", p)
	}
	if len(p.Stores) != 1 || p.Stores[0].Store != "shopA" {
		t.Errorf("unexpected product stores: %+v", p.Stores)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "MissingYouTubeKey",
			content: `
ai:
  gemini_api_key: gemini-key
`,
		},
		{
			name: "MissingGeminiKey",
			content: `
youtube:
  api_key: yt-key
`,
		},
		{
			name: "EmailEnabledWithoutCredentials",
			content: `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gemini-key
email:
  enabled: true
`,
		},
		{
			name: "StoreWithoutSelector",
			content: `
youtube:
  api_key: yt-key
ai:
  gemini_api_key: gemini-key
scrape:
  stores:
    shopA:
      currency: JPY
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", writeConfig(t, tt.content))
			t.Setenv("YOUTUBE_API_KEY", "")
			t.Setenv("GEMINI_API_KEY", "")
			if _, err := Load(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
