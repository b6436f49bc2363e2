package attack

import (
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync/atomic"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const healthPath = "/api/v1/health"

var missCounter atomic.Uint64

// FloodTargeter sends every request from the same client so the server's
// rate limiter starts answering 429 once the window quota is spent.
func FloodTargeter(baseURL string) vegeta.Targeter {
	url := baseURL + healthPath

	return func(t *vegeta.Target) error {
		t.Method = http.MethodGet
		t.URL = url
		t.Header = nil
		return nil
	}
}

// SpreadTargeter spreads requests over clients distinct forwarded IPs, each
// of which opens its own rate limit window.
func SpreadTargeter(baseURL string, clients int) vegeta.Targeter {
	url := baseURL + healthPath
	ips := clientIPs(clients)

	return func(t *vegeta.Target) error {
		t.Method = http.MethodGet
		t.URL = url
		t.Header = http.Header{"X-Forwarded-For": []string{ips[rand.IntN(len(ips))]}}
		return nil
	}
}

// MixedTargeter is SpreadTargeter with a share of requests that fail: unknown
// routes (404) and payloads rejected by input screening (400).
func MixedTargeter(baseURL string, clients int, failureRatio float64) vegeta.Targeter {
	spread := SpreadTargeter(baseURL, clients)

	return func(t *vegeta.Target) error {
		if err := spread(t); err != nil {
			return err
		}
		if rand.Float64() >= failureRatio {
			return nil
		}
		n := missCounter.Add(1)
		if n%2 == 0 {
			t.URL = fmt.Sprintf("%s/api/v1/missing/%d", baseURL, n)
		} else {
			t.URL = baseURL + healthPath + "?q=%3Cscript%3Ealert(1)%3C%2Fscript%3E"
		}
		return nil
	}
}

func clientIPs(n int) []string {
	n = max(n, 1)
	ips := make([]string, n)
	for i := range n {
		ips[i] = fmt.Sprintf("10.%d.%d.%d", (i>>16)&0xff, (i>>8)&0xff, i&0xff)
	}
	return ips
}
