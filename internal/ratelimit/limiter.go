package ratelimit

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"crmguard/internal/config"
)

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window request counter keyed by client identifier.
// A window opens on the first request of an identifier and is replaced
// wholesale once its reset time has passed.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	window          time.Duration
	max             int
	cleanupInterval time.Duration
	logger          *slog.Logger
	now             func() time.Time

	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

type Option func(*Limiter)

func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

func New(cfg *config.RateLimitConfig, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		windows:         make(map[string]*window),
		window:          cfg.Window,
		max:             cfg.MaxRequests,
		cleanupInterval: cfg.CleanupInterval,
		logger:          logger,
		now:             time.Now,
		shutdownCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsAllowed counts a request from id and reports whether it is admitted.
// Denied requests do not increase the count.
func (l *Limiter) IsAllowed(id string) bool {
	now := l.now()

	l.mu.Lock()
	w, ok := l.windows[id]
	if !ok || now.After(w.resetAt) {
		l.windows[id] = &window{count: 1, resetAt: now.Add(l.window)}
		l.mu.Unlock()
		return true
	}
	if w.count < l.max {
		w.count++
		l.mu.Unlock()
		return true
	}
	resetAt := w.resetAt
	l.mu.Unlock()

	l.logger.Warn("security event",
		slog.String("event", "rate_limit_exceeded"),
		slog.String("identifier", id),
		slog.Int("limit", l.max),
		slog.Time("reset_at", resetAt))
	return false
}

// Allow implements echo's middleware.RateLimiterStore.
func (l *Limiter) Allow(id string) (bool, error) {
	return l.IsAllowed(id), nil
}

// Remaining reports how many more requests id may make in its current window.
func (l *Limiter) Remaining(id string) int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[id]
	if !ok || now.After(w.resetAt) {
		return l.max
	}
	return max(l.max-w.count, 0)
}

// Cleanup removes every expired window and returns how many were removed.
func (l *Limiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, id)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) Limit() int {
	return l.max
}

func (l *Limiter) Window() time.Duration {
	return l.window
}

// Start launches the periodic sweep of expired windows.
func (l *Limiter) Start(ctx context.Context) {
	l.wg.Add(1)
	go l.sweep(ctx)

	l.logger.Info("rate limiter started",
		slog.Duration("window", l.window),
		slog.Int("max_requests", l.max),
		slog.Duration("cleanup_interval", l.cleanupInterval))
}

func (l *Limiter) Close() {
	l.shutdownOnce.Do(func() {
		close(l.shutdownCh)
		l.wg.Wait()
	})
}

func (l *Limiter) sweep(ctx context.Context) {
	defer l.wg.Done()
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.shutdownCh:
			return
		case <-ticker.C:
			l.safeCleanup()
		}
	}
}

func (l *Limiter) safeCleanup() {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("rate limit cleanup panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	if removed := l.Cleanup(); removed > 0 {
		l.logger.Debug("expired rate limit windows removed",
			slog.Int("removed", removed),
			slog.Int("remaining", l.Len()))
	}
}
