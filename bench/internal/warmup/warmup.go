package warmup

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	healthPath   = "/api/v1/health"
	bypassHeader = "X-Rate-Limit-Bypass"
	parallelism  = 16
)

// Run sends count health checks with the rate limit bypass header so the
// server's metrics store has a baseline before the attack starts. It returns
// the number of requests that completed with 200.
func Run(client *http.Client, baseURL string, count int, bypassSecret string, timeout time.Duration) (int, error) {
	if count <= 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var ok atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for range count {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+healthPath, nil)
			if err != nil {
				return err
			}
			if bypassSecret != "" {
				req.Header.Set(bypassHeader, bypassSecret)
			}

			resp, err := client.Do(req)
			if err != nil {
				return fmt.Errorf("warmup request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				ok.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(ok.Load()), err
	}

	fmt.Printf("Warmup: %d/%d requests succeeded\n", ok.Load(), count)
	return int(ok.Load()), nil
}
