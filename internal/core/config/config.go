package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DefaultAPIURL        = "https://api.appstoreconnect.apple.com/v1"
	DefaultLookbackDays  = 30
	DefaultMaxInstances  = 5
	DefaultPageLimit     = 200
	DefaultTimeoutSecond = 300

	dateLayout = "2006-01-02"
)

// Config represents the top-level configuration for the extractor and its query API.
type Config struct {
	AppStore   AppStoreConfig   `koanf:"appstore"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Log        LogConfig        `koanf:"log"`
}

// AppStoreConfig holds provider credentials and transport settings.
type AppStoreConfig struct {
	IssuerID       string `koanf:"issuer_id"`
	KeyID          string `koanf:"key_id"`
	PrivateKey     string `koanf:"private_key"`      // PEM text; literal "\n" sequences are unescaped
	PrivateKeyPath string `koanf:"private_key_path"` // alternative to private_key
	AppID          string `koanf:"app_id"`
	APIURL         string `koanf:"api_url"`
	RequestTimeout int    `koanf:"request_timeout"` // seconds
}

// ExtractionConfig controls the date window and per-run work bounds.
type ExtractionConfig struct {
	StartDate    string `koanf:"start_date"` // YYYY-MM-DD or RFC3339; empty = lookback_days ago
	EndDate      string `koanf:"end_date"`   // YYYY-MM-DD or RFC3339; empty = yesterday
	LookbackDays int    `koanf:"lookback_days"`
	MaxInstances int    `koanf:"max_instances"`
	PageLimit    int    `koanf:"page_limit"`
	ScratchDir   string `koanf:"scratch_dir"` // parent of per-run temp dirs; empty = os.TempDir()
	Schedule     string `koanf:"schedule"`    // serve mode only; empty disables periodic extraction
	ReportsDir   string `koanf:"reports_dir"` // optional *.yaml report selector overrides
}

// DatabaseConfig holds the record store connection settings.
type DatabaseConfig struct {
	Enabled      bool   `koanf:"enabled"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`
	Mode string `koanf:"mode"` // debug | release
}

// BreakerConfig tunes the circuit breaker in front of the provider API.
type BreakerConfig struct {
	Enabled     bool   `koanf:"enabled"`
	MaxFailures uint32 `koanf:"max_failures"` // consecutive failures before opening
	Timeout     string `koanf:"timeout"`      // open -> half-open delay
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // text | json
}

// Window is an inclusive calendar-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Timeout returns the per-request HTTP timeout.
func (c AppStoreConfig) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultTimeoutSecond * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// PrivateKeyPEM returns the signing key, reading private_key_path when private_key is empty.
func (c AppStoreConfig) PrivateKeyPEM() ([]byte, error) {
	if strings.TrimSpace(c.PrivateKey) != "" {
		return []byte(strings.ReplaceAll(c.PrivateKey, `\n`, "\n")), nil
	}
	if c.PrivateKeyPath == "" {
		return nil, fmt.Errorf("appstore.private_key or appstore.private_key_path is required")
	}
	b, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read appstore.private_key_path: %w", err)
	}
	return b, nil
}

// BreakerTimeout parses breaker.timeout, defaulting to one minute.
func (c BreakerConfig) BreakerTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Window resolves the configured date range against now.
// Missing start defaults to lookback_days ago, missing end to yesterday (provider data lags a day).
func (c ExtractionConfig) Window(now time.Time) (Window, error) {
	now = now.UTC()
	lookback := c.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}

	start := now.AddDate(0, 0, -lookback)
	if c.StartDate != "" {
		t, err := ParseDate(c.StartDate)
		if err != nil {
			return Window{}, fmt.Errorf("invalid extraction.start_date: %w", err)
		}
		start = t
	}

	end := now.AddDate(0, 0, -1)
	if c.EndDate != "" {
		t, err := ParseDate(c.EndDate)
		if err != nil {
			return Window{}, fmt.Errorf("invalid extraction.end_date: %w", err)
		}
		end = t
	}

	if DateOf(end).Before(DateOf(start)) {
		return Window{}, fmt.Errorf("extraction window is empty: start %s after end %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}
	return Window{Start: start, End: end}, nil
}

// ScheduleInterval returns the periodic extraction interval, 0 when disabled.
func (c ExtractionConfig) ScheduleInterval() time.Duration {
	d, err := time.ParseDuration(c.Schedule)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// ParseDate accepts YYYY-MM-DD or RFC3339 (a trailing "Z" included).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t.UTC(), nil
}

// DateOf truncates t to midnight UTC of its calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppStore.IssuerID) == "" {
		return fmt.Errorf("appstore.issuer_id is required")
	}
	if strings.TrimSpace(c.AppStore.KeyID) == "" {
		return fmt.Errorf("appstore.key_id is required")
	}
	if strings.TrimSpace(c.AppStore.PrivateKey) == "" && strings.TrimSpace(c.AppStore.PrivateKeyPath) == "" {
		return fmt.Errorf("appstore.private_key or appstore.private_key_path is required")
	}
	if strings.TrimSpace(c.AppStore.AppID) == "" {
		return fmt.Errorf("appstore.app_id is required")
	}
	if strings.TrimSpace(c.AppStore.APIURL) == "" {
		return fmt.Errorf("appstore.api_url is required")
	}
	if c.AppStore.RequestTimeout <= 0 {
		return fmt.Errorf("appstore.request_timeout must be > 0")
	}

	if _, err := c.Extraction.Window(time.Now()); err != nil {
		return err
	}
	if c.Extraction.MaxInstances <= 0 {
		return fmt.Errorf("extraction.max_instances must be > 0")
	}
	if c.Extraction.PageLimit <= 0 || c.Extraction.PageLimit > 200 {
		return fmt.Errorf("invalid extraction.page_limit %d (must be 1-200)", c.Extraction.PageLimit)
	}
	if c.Extraction.Schedule != "" {
		d, err := time.ParseDuration(c.Extraction.Schedule)
		if err != nil {
			return fmt.Errorf("invalid extraction.schedule %q: %w", c.Extraction.Schedule, err)
		}
		if d <= 0 {
			return fmt.Errorf("extraction.schedule must be > 0")
		}
	}

	if c.Database.Enabled {
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("database.dsn is required when database.enabled")
		}
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be > 0")
		}
		if c.Database.MaxIdleConns <= 0 {
			return fmt.Errorf("database.max_idle_conns must be > 0")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("invalid log.format %q (must be text or json)", c.Log.Format)
	}

	return nil
}

// Load parses config from defaults, an optional YAML file and ASC_* environment variables, then validates it.
// ASC_APPSTORE__APP_ID=123 overrides appstore.app_id.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"appstore.api_url":          DefaultAPIURL,
		"appstore.request_timeout":  DefaultTimeoutSecond,
		"extraction.lookback_days":  DefaultLookbackDays,
		"extraction.max_instances":  DefaultMaxInstances,
		"extraction.page_limit":     DefaultPageLimit,
		"extraction.scratch_dir":    "",
		"extraction.schedule":       "",
		"extraction.reports_dir":    "",
		"database.enabled":          false,
		"database.dsn":              "",
		"database.max_open_conns":   5,
		"database.max_idle_conns":   5,
		"database.auto_migrate":     true,
		"server.port":               8080,
		"server.host":               "0.0.0.0",
		"server.mode":               "release",
		"breaker.enabled":           true,
		"breaker.max_failures":      5,
		"breaker.timeout":           "1m",
		"log.level":                 "info",
		"log.format":                "text",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("ASC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ASC_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
