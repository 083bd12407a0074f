// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/blog-exposure-checker/internal/sheet"
)

// Search fetcher kinds.
const (
	FetcherHTTP     = "http"
	FetcherHeadless = "headless"
	// FetcherAuto fetches over HTTP and renders headless only when the
	// response looks client-rendered.
	FetcherAuto = "auto"
)

// Sheet drivers.
const (
	SheetDriverGoogle = "google"
	SheetDriverMemory = "memory"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Search  SearchConfig  `mapstructure:"search"`
	Blog    BlogConfig    `mapstructure:"blog"`
	Sheet   SheetConfig   `mapstructure:"sheet"`
	Job     JobConfig     `mapstructure:"job"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	RateLimitPerHost float64 `mapstructure:"rate_limit_per_host"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
}

// SearchConfig configures the search result client.
type SearchConfig struct {
	BaseURL                string        `mapstructure:"base_url"`
	MinDelay               time.Duration `mapstructure:"min_delay"`
	MaxDelay               time.Duration `mapstructure:"max_delay"`
	Fetcher                string        `mapstructure:"fetcher"`
	HeadlessTimeoutSeconds int           `mapstructure:"headless_timeout_seconds"`
	PromotionThreshold     int           `mapstructure:"promotion_threshold"`
	UserAgents             []string      `mapstructure:"user_agents"`
}

// BlogConfig holds the publisher listing endpoints. Each template takes the
// publisher id as its single %s verb.
type BlogConfig struct {
	FeedURLTemplate    string `mapstructure:"feed_url_template"`
	ListingURLTemplate string `mapstructure:"listing_url_template"`
}

// SheetConfig identifies the worksheet and its column layout.
type SheetConfig struct {
	Driver          string       `mapstructure:"driver"`
	SpreadsheetID   string       `mapstructure:"spreadsheet_id"`
	Worksheet       string       `mapstructure:"worksheet"`
	CredentialsFile string       `mapstructure:"credentials_file"`
	CredentialsJSON string       `mapstructure:"credentials_json"`
	SeedFile        string       `mapstructure:"seed_file"`
	Layout          sheet.Layout `mapstructure:"layout"`
}

// JobConfig controls batch pacing and output.
type JobConfig struct {
	RowDelay       time.Duration `mapstructure:"row_delay"`
	NotFoundMarker string        `mapstructure:"not_found_marker"`
}

// NotifyConfig controls run report publishing.
type NotifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EXPOSURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// bindLegacyEnv accepts the unprefixed variable names deployments already
// set for the spreadsheet.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"sheet.credentials_json": {"EXPOSURE_SHEET_CREDENTIALS_JSON", "GOOGLE_CREDENTIALS"},
		"sheet.spreadsheet_id":   {"EXPOSURE_SHEET_SPREADSHEET_ID", "SPREADSHEET_ID"},
		"server.port":            {"EXPOSURE_SERVER_PORT", "PORT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	layout := sheet.DefaultLayout()

	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.rate_limit_per_host", 1.0)
	v.SetDefault("http.rate_limit_burst", 2)
	v.SetDefault("search.base_url", "https://search.naver.com/search.naver")
	v.SetDefault("search.min_delay", "1s")
	v.SetDefault("search.max_delay", "2s")
	v.SetDefault("search.fetcher", FetcherHTTP)
	v.SetDefault("search.headless_timeout_seconds", 30)
	v.SetDefault("search.promotion_threshold", 2048)
	v.SetDefault("blog.feed_url_template", "https://rss.blog.naver.com/%s.xml")
	v.SetDefault("blog.listing_url_template", "https://blog.naver.com/PostList.naver?blogId=%s&categoryNo=0&from=postList")
	v.SetDefault("sheet.driver", SheetDriverGoogle)
	v.SetDefault("sheet.worksheet", "발행")
	v.SetDefault("sheet.credentials_file", "credentials.json")
	v.SetDefault("sheet.layout.first_data_row", layout.FirstDataRow)
	v.SetDefault("sheet.layout.date", layout.Date)
	v.SetDefault("sheet.layout.keyword", layout.Keyword)
	v.SetDefault("sheet.layout.title", layout.Title)
	v.SetDefault("sheet.layout.link", layout.Link)
	v.SetDefault("sheet.layout.eligible", layout.Eligible)
	v.SetDefault("sheet.layout.result", layout.Result)
	v.SetDefault("job.row_delay", "500ms")
	v.SetDefault("job.not_found_marker", "-")
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.topic", "exposure-runs")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.RateLimitPerHost < 0 {
		return fmt.Errorf("http.rate_limit_per_host must be >= 0")
	}
	if c.Search.MinDelay < 0 || c.Search.MaxDelay < c.Search.MinDelay {
		return fmt.Errorf("search delays must satisfy 0 <= min_delay <= max_delay")
	}
	switch c.Search.Fetcher {
	case FetcherHTTP, FetcherHeadless, FetcherAuto:
	default:
		return fmt.Errorf("search.fetcher must be %q, %q or %q, got %q",
			FetcherHTTP, FetcherHeadless, FetcherAuto, c.Search.Fetcher)
	}
	for name, tmpl := range map[string]string{
		"blog.feed_url_template":    c.Blog.FeedURLTemplate,
		"blog.listing_url_template": c.Blog.ListingURLTemplate,
	} {
		if strings.Count(tmpl, "%s") != 1 {
			return fmt.Errorf("%s must contain exactly one %%s", name)
		}
	}
	switch c.Sheet.Driver {
	case SheetDriverGoogle:
		if c.Sheet.Worksheet == "" {
			return fmt.Errorf("sheet.worksheet must be set")
		}
	case SheetDriverMemory:
	default:
		return fmt.Errorf("sheet.driver must be %q or %q, got %q", SheetDriverGoogle, SheetDriverMemory, c.Sheet.Driver)
	}
	if err := c.Sheet.Layout.Validate(); err != nil {
		return err
	}
	if c.Job.RowDelay < 0 {
		return fmt.Errorf("job.row_delay must be >= 0")
	}
	if c.Notify.Enabled && (c.Notify.ProjectID == "" || c.Notify.Topic == "") {
		return fmt.Errorf("notify.project_id and notify.topic must be set when notify is enabled")
	}
	return nil
}

// RequestTimeout returns the per-request outbound HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}
