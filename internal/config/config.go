package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	// Fetching
	RequestTimeout  int     `mapstructure:"REQUEST_TIMEOUT"`   // seconds, static HTTP path
	RenderTimeout   int     `mapstructure:"RENDER_TIMEOUT"`    // seconds, browser path
	RenderSettleMS  int     `mapstructure:"RENDER_SETTLE_MS"`  // wait after body is visible
	FetchRatePerSec float64 `mapstructure:"FETCH_RATE_PER_SEC"`

	// Discovery
	SearchDelayMinMS int `mapstructure:"SEARCH_DELAY_MIN_MS"`
	SearchDelayMaxMS int `mapstructure:"SEARCH_DELAY_MAX_MS"`
	MaxSearchResults int `mapstructure:"MAX_SEARCH_RESULTS"`

	// Proxy pool
	ProxyFile        string `mapstructure:"PROXY_FILE"`
	ProxyStrategy    string `mapstructure:"PROXY_STRATEGY"`
	ProxyMaxFailures int    `mapstructure:"PROXY_MAX_FAILURES"`
	ProxyTestURL     string `mapstructure:"PROXY_TEST_URL"`
	ProxyTestTimeout int    `mapstructure:"PROXY_TEST_TIMEOUT"` // seconds
	DispatchTimeout  int    `mapstructure:"DISPATCH_TIMEOUT"`   // seconds
	DispatchRetries  int    `mapstructure:"DISPATCH_RETRIES"`
	DispatchBackoff  int    `mapstructure:"DISPATCH_BACKOFF_MS"`

	// Output
	OutputDir    string `mapstructure:"OUTPUT_DIR"`
	OutputFormat string `mapstructure:"OUTPUT_FORMAT"`

	// Optional storage backends (empty disables them)
	PostgresURL       string `mapstructure:"POSTGRES_URL"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	DeduplicationDays int    `mapstructure:"DEDUPLICATION_DAYS"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REQUEST_TIMEOUT", 30)
	viper.SetDefault("RENDER_TIMEOUT", 30)
	viper.SetDefault("RENDER_SETTLE_MS", 2000)
	viper.SetDefault("FETCH_RATE_PER_SEC", 0.5)
	viper.SetDefault("SEARCH_DELAY_MIN_MS", 1000)
	viper.SetDefault("SEARCH_DELAY_MAX_MS", 4000)
	viper.SetDefault("MAX_SEARCH_RESULTS", 20)
	viper.SetDefault("PROXY_FILE", "proxy_list.json")
	viper.SetDefault("PROXY_STRATEGY", "round_robin")
	viper.SetDefault("PROXY_MAX_FAILURES", 3)
	viper.SetDefault("PROXY_TEST_URL", "http://httpbin.org/ip")
	viper.SetDefault("PROXY_TEST_TIMEOUT", 10)
	viper.SetDefault("DISPATCH_TIMEOUT", 30)
	viper.SetDefault("DISPATCH_RETRIES", 3)
	viper.SetDefault("DISPATCH_BACKOFF_MS", 1000)
	viper.SetDefault("OUTPUT_DIR", "output")
	viper.SetDefault("OUTPUT_FORMAT", "json")
	viper.SetDefault("DEDUPLICATION_DAYS", 2)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchDelayRange returns the configured bounds for the randomized pause
// between outbound search requests.
func (c *Config) SearchDelayRange() (time.Duration, time.Duration) {
	return time.Duration(c.SearchDelayMinMS) * time.Millisecond,
		time.Duration(c.SearchDelayMaxMS) * time.Millisecond
}
