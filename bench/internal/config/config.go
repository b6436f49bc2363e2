package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Spread and mixed modes vary X-Forwarded-For per request. The server only
// honours it when SERVER_TRUSTED_PROXIES covers the bench host, for example
// 127.0.0.1/32 for a local run.
type Config struct {
	BaseURL            string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Rate               int           `env:"RATE" envDefault:"200"`
	Duration           time.Duration `env:"DURATION" envDefault:"30s"`
	BenchType          string        `env:"BENCH_TYPE" envDefault:"mixed"`
	Clients            int           `env:"CLIENTS" envDefault:"1000"`
	FailureRatio       float64       `env:"FAILURE_RATIO" envDefault:"0.2"`
	RateLimitBypass    string        `env:"RATE_LIMIT_BYPASS_SECRET"`
	AdminSecret        string        `env:"ADMIN_SECRET"`
	InsecureSkipVerify bool          `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
	WarmupRequests     int           `env:"WARMUP_REQUESTS" envDefault:"200"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
