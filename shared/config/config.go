package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Scrape     ScrapeConfig     `yaml:"scrape"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Storage    StorageConfig    `yaml:"storage"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
	Products   []ProductSeed    `yaml:"products"`
	LogLevel   string           `yaml:"log_level"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

// ScrapeConfig maps store names to the CSS selector and currency used when
// scraping that store's product pages.
type ScrapeConfig struct {
	UserAgent string                  `yaml:"user_agent"`
	Stores    map[string]StoreProfile `yaml:"stores"`
}

type StoreProfile struct {
	PriceSelector string `yaml:"price_selector"`
	Currency      string `yaml:"currency"`
}

type PipelineConfig struct {
	Language           string `yaml:"language"`
	MaxSearchResults   int64  `yaml:"max_search_results"`
	FanOut             int    `yaml:"fan_out"`
	SentimentSpanChars int    `yaml:"sentiment_span_chars"`
	CombinedTextChars  int    `yaml:"combined_text_chars"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// ProductSeed declares a product to upsert into the store at startup.
type ProductSeed struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Brand    string      `yaml:"brand"`
	Category string      `yaml:"category"`
	Query    string      `yaml:"query"`
	Stores   []StoreSeed `yaml:"stores"`
}

type StoreSeed struct {
	Store string `yaml:"store"`
	URL   string `yaml:"url"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 6 * * *" // Daily at 6 AM
	}
	if c.Pipeline.Language == "" {
		c.Pipeline.Language = "en"
	}
	if c.Pipeline.MaxSearchResults <= 0 {
		c.Pipeline.MaxSearchResults = 10
	}
	if c.Pipeline.FanOut <= 0 {
		c.Pipeline.FanOut = 4
	}
	if c.Pipeline.SentimentSpanChars <= 0 {
		c.Pipeline.SentimentSpanChars = 2000
	}
	if c.Pipeline.CombinedTextChars <= 0 {
		c.Pipeline.CombinedTextChars = 10000
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/products.db"
	}
	if c.Scrape.UserAgent == "" {
		c.Scrape.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	if c.Monitoring.HealthPort <= 0 {
		c.Monitoring.HealthPort = 8080
	}
}

func (c *Config) validate() error {
	if c.YouTube.APIKey == "" {
		return fmt.Errorf("YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key)")
	}
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Email.Enabled {
		if c.Email.Username == "" {
			return fmt.Errorf("email username is required when email is enabled (set EMAIL_USERNAME or email.username)")
		}
		if c.Email.Password == "" {
			return fmt.Errorf("email password is required when email is enabled (set EMAIL_PASSWORD or email.password)")
		}
	}
	for name, profile := range c.Scrape.Stores {
		if profile.PriceSelector == "" {
			return fmt.Errorf("store %s has no price_selector", name)
		}
	}
	return nil
}
