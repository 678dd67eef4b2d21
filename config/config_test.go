package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
companies:
  - name: Acme Corp
  - name: Globex
dedup:
  threshold: 0.9
pipeline:
  workers: 2
  timeout: 45s
retry:
  baseDelay: 250ms
sources:
  newsapi:
    enabled: false
notify:
  format: html
  telegram:
    chatId: "123"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{configPathEnv, newsAPIKeyEnv, openAIAPIKeyEnv, telegramTokenEnv, telegramChatIDEnv, emailUserEnv, emailPasswordEnv} {
		t.Setenv(k, "")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme Corp", "Globex"}, cfg.Entities())
	assert.Equal(t, 0.9, cfg.Dedup.Threshold)
	assert.Equal(t, 10, cfg.Dedup.TopK, "unset values keep defaults")
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, 3.0, cfg.Scoring.Floor)
	assert.False(t, cfg.Sources.NewsAPI.Enabled)
	assert.True(t, cfg.Sources.RSS.Enabled)
	assert.Equal(t, "html", cfg.Notify.Format)

	policy := cfg.RetryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.BaseDelay)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(newsAPIKeyEnv, "news-key")
	t.Setenv(openAIAPIKeyEnv, "sk-test")
	t.Setenv(telegramTokenEnv, "bot-token")

	path := writeConfig(t, "companies:\n  - name: Acme\n")
	t.Setenv(configPathEnv, path)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "news-key", cfg.Sources.NewsAPI.APIKey)
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "bot-token", cfg.Notify.Telegram.BotToken)
	assert.False(t, cfg.Notify.Telegram.Enabled())
	assert.False(t, cfg.Notify.Email.Enabled())
}

func TestLoad_EmailFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(emailUserEnv, "digest@example.com")
	t.Setenv(emailPasswordEnv, "app-password")

	cfg, err := Load(writeConfig(t, "companies:\n  - name: Acme\nsources:\n  newsapi:\n    enabled: false\n"))
	require.NoError(t, err)

	email := cfg.Notify.Email
	assert.True(t, email.Enabled())
	assert.Equal(t, "smtp.gmail.com", email.Host)
	assert.Equal(t, 587, email.Port)
	assert.Equal(t, "digest@example.com", email.Sender())
	assert.Equal(t, []string{"digest@example.com"}, email.Recipients(), "mail goes to the sender by default")

	email.From = "newswire@example.com"
	email.To = []string{"team@example.com"}
	assert.Equal(t, "newswire@example.com", email.Sender())
	assert.Equal(t, []string{"team@example.com"}, email.Recipients())
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load(writeConfig(t, "companies: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig, "defaults alone have no companies")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.Companies = []CompanyConfig{{Name: "Acme"}}
		cfg.Sources.NewsAPI.APIKey = "key"
		return cfg
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no companies", func(c *Config) { c.Companies = nil }},
		{"blank company", func(c *Config) { c.Companies = append(c.Companies, CompanyConfig{Name: " "}) }},
		{"repeated company", func(c *Config) { c.Companies = append(c.Companies, CompanyConfig{Name: "Acme"}) }},
		{"floor too high", func(c *Config) { c.Scoring.Floor = 20 }},
		{"threshold zero", func(c *Config) { c.Dedup.Threshold = 0 }},
		{"threshold above one", func(c *Config) { c.Dedup.Threshold = 1.1 }},
		{"no workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"no attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }},
		{"no sources", func(c *Config) { c.Sources.NewsAPI.Enabled = false; c.Sources.RSS.Enabled = false }},
		{"newsapi without key", func(c *Config) { c.Sources.NewsAPI.APIKey = "" }},
		{"rss without rate", func(c *Config) { c.Sources.RSS.RequestsPerSecond = 0 }},
		{"bad format", func(c *Config) { c.Notify.Format = "pdf" }},
		{"no storage", func(c *Config) { c.Storage.Path = "" }},
		{"email without host", func(c *Config) {
			c.Notify.Email.Username, c.Notify.Email.Password = "u@example.com", "p"
			c.Notify.Email.Host = ""
		}},
		{"email bad port", func(c *Config) {
			c.Notify.Email.Username, c.Notify.Email.Password = "u@example.com", "p"
			c.Notify.Email.Port = 0
		}},
		{"email bad tls", func(c *Config) {
			c.Notify.Email.Username, c.Notify.Email.Password = "u@example.com", "p"
			c.Notify.Email.TLS = "sometimes"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
