package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const EnvDevelopment = "development"

type Config struct {
	Server     ServerConfig
	TLS        TLSConfig
	App        AppConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Alert      AlertConfig
	RateLimit  RateLimitConfig
	Dashboard  DashboardConfig
	Admin      AdminConfig
	Pprof      PprofConfig
	Validation ValidationConfig
}

type ServerConfig struct {
	Host           string `env:"SERVER_HOST" envDefault:"localhost"`
	Port           int    `env:"SERVER_PORT" envDefault:"8080"`
	MaxConnections int    `env:"SERVER_MAX_CONNECTIONS" envDefault:"0"`

	// CIDR ranges of reverse proxies allowed to set X-Forwarded-For. Empty
	// means client IPs are taken from the peer address.
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES" envSeparator:","`
}

type TLSConfig struct {
	Enabled  bool   `env:"TLS_ENABLED" envDefault:"false"`
	Port     int    `env:"TLS_PORT" envDefault:"8443"`
	CertFile string `env:"TLS_CERT_FILE"`
	KeyFile  string `env:"TLS_KEY_FILE"`
}

type AppConfig struct {
	Name string `env:"APP_NAME" envDefault:"crmguard"`
	Env  string `env:"APP_ENV" envDefault:"production"`
}

// IsDevelopment reports whether error details and raw client IPs may be exposed.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == EnvDevelopment
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	File       string `env:"LOG_FILE"`
	MaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"10"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`
}

type MetricsConfig struct {
	StoreCapacity        int           `env:"METRICS_STORE_CAPACITY" envDefault:"1000"`
	SlowRequestThreshold time.Duration `env:"METRICS_SLOW_REQUEST_THRESHOLD" envDefault:"2s"`
	InfraInterval        time.Duration `env:"METRICS_INFRA_INTERVAL" envDefault:"10s"`
}

type AlertConfig struct {
	PollInterval   time.Duration `env:"ALERT_POLL_INTERVAL" envDefault:"1m"`
	NotifyInterval time.Duration `env:"ALERT_NOTIFY_INTERVAL" envDefault:"5m"`
}

type RateLimitConfig struct {
	Window          time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	MaxRequests     int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
	CleanupInterval time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"60s"`
	BypassSecret    string        `env:"RATE_LIMIT_BYPASS_SECRET"`
}

type DashboardConfig struct {
	CacheTTL         time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"5s"`
	CacheMaxSizePow2 int           `env:"DASHBOARD_CACHE_MAX_SIZE_POW2" envDefault:"20"`
	TopN             int           `env:"DASHBOARD_TOP_N" envDefault:"10"`
}

type AdminConfig struct {
	Secret string `env:"ADMIN_SECRET"`
}

type PprofConfig struct {
	Enabled bool   `env:"PPROF_ENABLED" envDefault:"false"`
	Secret  string `env:"PPROF_SECRET"`
}

type ValidationConfig struct {
	MaxRequestBodySize string `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1M"`
	MaxParamLength     int    `env:"MAX_PARAM_LENGTH" envDefault:"2048"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Metrics.StoreCapacity <= 0 {
		errs = append(errs, fmt.Errorf("METRICS_STORE_CAPACITY must be positive, got %d", c.Metrics.StoreCapacity))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window))
	}
	if c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", c.RateLimit.MaxRequests))
	}
	if c.RateLimit.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_CLEANUP_INTERVAL must be positive, got %s", c.RateLimit.CleanupInterval))
	}
	if c.Metrics.InfraInterval <= 0 {
		errs = append(errs, fmt.Errorf("METRICS_INFRA_INTERVAL must be positive, got %s", c.Metrics.InfraInterval))
	}
	if c.Dashboard.TopN <= 0 {
		errs = append(errs, fmt.Errorf("DASHBOARD_TOP_N must be positive, got %d", c.Dashboard.TopN))
	}
	if c.Validation.MaxParamLength <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PARAM_LENGTH must be positive, got %d", c.Validation.MaxParamLength))
	}
	if c.Alert.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("ALERT_POLL_INTERVAL must be positive, got %s", c.Alert.PollInterval))
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS_ENABLED is set"))
	}
	return errors.Join(errs...)
}
