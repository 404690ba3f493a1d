package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete examwatch configuration.
// Hierarchy (highest to lowest priority): CLI flags, EXAMWATCH_* environment
// variables, config file (~/.examwatch/config.yaml), defaults.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Crawl    CrawlConfig    `yaml:"crawl" mapstructure:"crawl"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	Dates    DateConfig     `yaml:"dates" mapstructure:"dates"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Backup   BackupConfig   `yaml:"backup" mapstructure:"backup"`
}

// HTTPConfig governs the fetch transport
type HTTPConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy      string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// Timeout returns the fetch timeout as a duration
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CrawlConfig governs politeness and retry behavior
type CrawlConfig struct {
	DownloadDelaySeconds        int  `yaml:"download_delay_seconds" mapstructure:"download_delay_seconds"`
	ConcurrentRequestsPerDomain int  `yaml:"concurrent_requests_per_domain" mapstructure:"concurrent_requests_per_domain"`
	RetryTimes                  int  `yaml:"retry_times" mapstructure:"retry_times"`
	Workers                     int  `yaml:"workers" mapstructure:"workers"`
	RespectRobots               bool `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// DownloadDelay returns the per-domain delay floor as a duration
func (c CrawlConfig) DownloadDelay() time.Duration {
	return time.Duration(c.DownloadDelaySeconds) * time.Second
}

// VerifyConfig governs change classification and auto-approval
type VerifyConfig struct {
	TrustedDomains             []string `yaml:"trusted_domains" mapstructure:"trusted_domains"`
	AutoApproveConfidenceFloor int      `yaml:"auto_approve_confidence_floor" mapstructure:"auto_approve_confidence_floor"`
	ChangeConfidenceFloor      int      `yaml:"change_confidence_floor" mapstructure:"change_confidence_floor"`
	ContextRadius              int      `yaml:"context_radius" mapstructure:"context_radius"`
}

// DateConfig bounds the validity window for parsed dates
type DateConfig struct {
	MinYear int `yaml:"min_year" mapstructure:"min_year"`
	MaxYear int `yaml:"max_year" mapstructure:"max_year"`
}

// LLMConfig governs the semantic extraction fallback (tier 3).
// Disabled unless Enabled is set and an API key is available.
type LLMConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider       string `yaml:"provider" mapstructure:"provider"` // "openai"
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxChars       int    `yaml:"max_chars" mapstructure:"max_chars"` // Page text sent to the model is truncated to this
}

// CacheConfig governs the fetch cache
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	TTLMinutes int    `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// TTL returns the cache TTL as a duration
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// DatabaseConfig points at the persistence collaborator
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty" mapstructure:"url"`
}

// BackupConfig governs the rejected-item sink
type BackupConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			UserAgent:      "Mozilla/5.0 (compatible; ExamWatchBot/1.0)",
			MaxBodyBytes:   2_000_000,
		},
		Crawl: CrawlConfig{
			DownloadDelaySeconds:        5,
			ConcurrentRequestsPerDomain: 1,
			RetryTimes:                  3,
			Workers:                     4,
			RespectRobots:               true,
		},
		Verify: VerifyConfig{
			TrustedDomains: []string{
				"upsc.gov.in",
				"ssc.nic.in",
				"ibps.in",
				"rbi.org.in",
				"rrbcdg.gov.in",
				"employmentnews.gov.in",
				"pib.gov.in",
			},
			AutoApproveConfidenceFloor: 70,
			ChangeConfidenceFloor:      40,
			ContextRadius:              150,
		},
		Dates: DateConfig{
			MinYear: 2020,
			MaxYear: 2030,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
			MaxChars:       4000,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        "",
			TTLMinutes: 30,
		},
		Backup: BackupConfig{
			Dir: "backup_scraper_data",
		},
	}
}

// Load builds the configuration from viper state layered over the defaults
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.Dates.MinYear > c.Dates.MaxYear {
		return fmt.Errorf("dates.min_year %d exceeds dates.max_year %d", c.Dates.MinYear, c.Dates.MaxYear)
	}
	if c.Verify.ChangeConfidenceFloor < 0 || c.Verify.ChangeConfidenceFloor > 100 {
		return fmt.Errorf("verify.change_confidence_floor out of range: %d", c.Verify.ChangeConfidenceFloor)
	}
	if c.Verify.AutoApproveConfidenceFloor < 0 || c.Verify.AutoApproveConfidenceFloor > 100 {
		return fmt.Errorf("verify.auto_approve_confidence_floor out of range: %d", c.Verify.AutoApproveConfidenceFloor)
	}
	if c.Crawl.ConcurrentRequestsPerDomain <= 0 {
		c.Crawl.ConcurrentRequestsPerDomain = 1
	}
	return nil
}
