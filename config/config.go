// Package config loads the newswire run configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poiesic/newswire/retry"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "NEWSWIRE_CONFIG"
	newsAPIKeyEnv     = "NEWS_API_KEY"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	emailUserEnv      = "GMAIL_SENDER"
	emailPasswordEnv  = "GMAIL_APP_PASSWORD"
)

// ErrInvalidConfig indicates a configuration that cannot start a run.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds every setting of a pipeline run.
type Config struct {
	Companies []CompanyConfig `yaml:"companies"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Retry     RetryConfig     `yaml:"retry"`
	Sources   SourcesConfig   `yaml:"sources"`
	AI        AIConfig        `yaml:"ai"`
	Storage   StorageConfig   `yaml:"storage"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// CompanyConfig names a tracked entity.
type CompanyConfig struct {
	Name string `yaml:"name"`
}

// ScoringConfig tunes relevance acceptance and digest priority.
type ScoringConfig struct {
	Floor        float64 `yaml:"floor"`
	HighPriority float64 `yaml:"highPriority"`
}

// DedupConfig tunes the duplicate decision.
type DedupConfig struct {
	Threshold float64 `yaml:"threshold"`
	TopK      int     `yaml:"topK"`
}

// PipelineConfig bounds concurrency and per-entity work.
type PipelineConfig struct {
	Workers      int           `yaml:"workers"`
	StoreWorkers int           `yaml:"storeWorkers"`
	MaxPerEntity int           `yaml:"maxPerEntity"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RetryConfig describes backoff for external calls.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	MaxDelay    time.Duration `yaml:"maxDelay"`
}

// SourcesConfig enables and configures source adapters.
type SourcesConfig struct {
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
	RSS     RSSConfig     `yaml:"rss"`
}

// NewsAPIConfig configures the NewsAPI adapter.
type NewsAPIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseUrl"`
	PageSize int    `yaml:"pageSize"`
	DaysBack int    `yaml:"daysBack"`
}

// RSSConfig configures the Google News RSS adapter.
type RSSConfig struct {
	Enabled           bool    `yaml:"enabled"`
	BaseURL           string  `yaml:"baseUrl"`
	Limit             int     `yaml:"limit"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
}

// AIConfig selects the embedding service.
type AIConfig struct {
	Host   string `yaml:"host"`
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// StorageConfig locates the article database.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"inMemory"`
}

// NotifyConfig selects digest delivery channels.
type NotifyConfig struct {
	Format   string         `yaml:"format"` // markdown or html
	Output   string         `yaml:"output"` // file path, "-" for stdout, empty to disable
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// EmailConfig describes SMTP delivery. The sender defaults to the username
// and the recipients default to the sender.
type EmailConfig struct {
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	TLS      string   `yaml:"tls"` // mandatory, opportunistic or none
}

// Enabled reports whether SMTP credentials are present.
func (e EmailConfig) Enabled() bool {
	return e.Username != "" && e.Password != ""
}

// Sender returns From, or the username when From is empty.
func (e EmailConfig) Sender() string {
	if e.From != "" {
		return e.From
	}
	return e.Username
}

// Recipients returns To, or the sender when To is empty.
func (e EmailConfig) Recipients() []string {
	if len(e.To) > 0 {
		return e.To
	}
	return []string{e.Sender()}
}

// Default returns the configuration used when no file overrides a value.
func Default() Config {
	return Config{
		Scoring: ScoringConfig{Floor: 3.0, HighPriority: 5.0},
		Dedup:   DedupConfig{Threshold: 0.85, TopK: 10},
		Pipeline: PipelineConfig{
			Workers:      4,
			StoreWorkers: 4,
			MaxPerEntity: 10,
			Timeout:      2 * time.Minute,
		},
		Retry: RetryConfig{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second},
		Sources: SourcesConfig{
			NewsAPI: NewsAPIConfig{Enabled: true, BaseURL: "https://newsapi.org", PageSize: 50, DaysBack: 1},
			RSS:     RSSConfig{Enabled: true, BaseURL: "https://news.google.com/rss/search", Limit: 20, RequestsPerSecond: 1},
		},
		AI:      AIConfig{Host: "https://api.openai.com/v1", Model: "text-embedding-3-small"},
		Storage: StorageConfig{Path: "newswire.db"},
		Notify: NotifyConfig{
			Format: "markdown",
			Output: "-",
			Email:  EmailConfig{Host: "smtp.gmail.com", Port: 587, TLS: "mandatory"},
		},
	}
}

// ResolvePath returns path, or the NEWSWIRE_CONFIG environment variable when path is empty.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	return os.Getenv(configPathEnv)
}

// Load reads YAML configuration from path (if any), applies environment
// overrides and validates the result. Values missing from the file keep
// their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path = ResolvePath(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Sources.NewsAPI.APIKey = v
	}
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notify.Telegram.ChatID = v
	}
	if v := os.Getenv(emailUserEnv); v != "" {
		c.Notify.Email.Username = v
	}
	if v := os.Getenv(emailPasswordEnv); v != "" {
		c.Notify.Email.Password = v
	}
}

// Entities returns the tracked entity names in configuration order.
func (c *Config) Entities() []string {
	names := make([]string, 0, len(c.Companies))
	for _, company := range c.Companies {
		names = append(names, strings.TrimSpace(company.Name))
	}
	return names
}

// RetryPolicy converts the retry settings.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

// Validate reports every problem that would prevent a run from starting.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Companies) == 0 {
		errs = append(errs, errors.New("no companies configured"))
	}
	seen := make(map[string]struct{})
	for i, name := range c.Entities() {
		if name == "" {
			errs = append(errs, fmt.Errorf("companies[%d]: name is required", i))
			continue
		}
		if _, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("companies[%d]: %q listed twice", i, name))
		}
		seen[name] = struct{}{}
	}

	if c.Scoring.Floor < 0 || c.Scoring.Floor > 15 {
		errs = append(errs, fmt.Errorf("scoring.floor must be within [0, 15], got %.2f", c.Scoring.Floor))
	}
	if c.Dedup.Threshold <= 0 || c.Dedup.Threshold > 1 {
		errs = append(errs, fmt.Errorf("dedup.threshold must be within (0, 1], got %.2f", c.Dedup.Threshold))
	}
	if c.Dedup.TopK < 1 {
		errs = append(errs, fmt.Errorf("dedup.topK must be at least 1, got %d", c.Dedup.TopK))
	}
	if c.Pipeline.Workers < 1 {
		errs = append(errs, fmt.Errorf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers))
	}
	if c.Pipeline.StoreWorkers < 1 {
		errs = append(errs, fmt.Errorf("pipeline.storeWorkers must be at least 1, got %d", c.Pipeline.StoreWorkers))
	}
	if c.Pipeline.MaxPerEntity < 0 {
		errs = append(errs, fmt.Errorf("pipeline.maxPerEntity must not be negative, got %d", c.Pipeline.MaxPerEntity))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.maxAttempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}

	if !c.Sources.NewsAPI.Enabled && !c.Sources.RSS.Enabled {
		errs = append(errs, errors.New("at least one source must be enabled"))
	}
	if c.Sources.NewsAPI.Enabled && c.Sources.NewsAPI.APIKey == "" {
		errs = append(errs, fmt.Errorf("sources.newsapi.apiKey is required when enabled (or set %s)", newsAPIKeyEnv))
	}

	if c.Sources.RSS.Enabled && c.Sources.RSS.RequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("sources.rss.requestsPerSecond must be positive, got %.2f", c.Sources.RSS.RequestsPerSecond))
	}

	if c.AI.Host == "" || c.AI.Model == "" {
		errs = append(errs, errors.New("ai.host and ai.model are required"))
	}
	if c.Storage.Path == "" && !c.Storage.InMemory {
		errs = append(errs, errors.New("storage.path is required unless storage.inMemory is set"))
	}

	switch c.Notify.Format {
	case "", "markdown", "md", "html":
	default:
		errs = append(errs, fmt.Errorf("notify.format must be markdown or html, got %q", c.Notify.Format))
	}

	if email := c.Notify.Email; email.Enabled() {
		if email.Host == "" {
			errs = append(errs, errors.New("notify.email.host is required when email is enabled"))
		}
		if email.Port < 1 || email.Port > 65535 {
			errs = append(errs, fmt.Errorf("notify.email.port must be within [1, 65535], got %d", email.Port))
		}
		switch email.TLS {
		case "", "mandatory", "opportunistic", "none":
		default:
			errs = append(errs, fmt.Errorf("notify.email.tls must be mandatory, opportunistic or none, got %q", email.TLS))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
