package main

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"

	"bench/internal/attack"
	"bench/internal/config"
	"bench/internal/report"
	"bench/internal/warmup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in for self-signed bench targets
		},
	}

	if _, err := warmup.Run(client, cfg.BaseURL, cfg.WarmupRequests, cfg.RateLimitBypass, cfg.RequestTimeout); err != nil {
		return fmt.Errorf("warmup failed: %w", err)
	}

	err = attack.Run(&attack.Config{
		BaseURL:            cfg.BaseURL,
		Rate:               cfg.Rate,
		Duration:           cfg.Duration,
		Type:               cfg.BenchType,
		Clients:            cfg.Clients,
		FailureRatio:       cfg.FailureRatio,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}, os.Stdout)
	if err != nil {
		return err
	}

	if cfg.AdminSecret == "" {
		return nil
	}
	return report.Overview(client, cfg.BaseURL, cfg.AdminSecret, os.Stdout)
}
