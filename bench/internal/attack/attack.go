package attack

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

type Config struct {
	BaseURL            string
	Rate               int
	Duration           time.Duration
	Type               string
	Clients            int
	FailureRatio       float64
	InsecureSkipVerify bool
}

func Run(cfg *Config, out io.Writer) error {
	var targeter vegeta.Targeter

	switch cfg.Type {
	case "flood":
		targeter = FloodTargeter(cfg.BaseURL)
	case "spread":
		targeter = SpreadTargeter(cfg.BaseURL, cfg.Clients)
	case "mixed":
		targeter = MixedTargeter(cfg.BaseURL, cfg.Clients, cfg.FailureRatio)
	default:
		return fmt.Errorf("unknown attack type: %s", cfg.Type)
	}

	rate := vegeta.Rate{Freq: cfg.Rate, Per: time.Second}
	attacker := vegeta.NewAttacker(
		vegeta.Redirects(-1),
		vegeta.KeepAlive(true),
		vegeta.Connections(10000),
		vegeta.Timeout(5*time.Second),
		vegeta.MaxBody(0),
		vegeta.HTTP2(false),
		vegeta.TLSConfig(tlsConfig(cfg.InsecureSkipVerify)),
	)

	fmt.Fprintf(out, "Starting %s attack: rate=%d/s duration=%s\n", cfg.Type, cfg.Rate, cfg.Duration)

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, cfg.Duration, cfg.Type) {
		metrics.Add(res)
	}
	metrics.Close()

	reporter := vegeta.NewTextReporter(&metrics)
	if err := reporter.Report(out); err != nil {
		return err
	}

	fmt.Fprintln(out, "Status codes:")
	for _, code := range slices.Sorted(maps.Keys(metrics.StatusCodes)) {
		fmt.Fprintf(out, "  %s: %d\n", code, metrics.StatusCodes[code])
	}
	return nil
}
