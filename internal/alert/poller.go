package alert

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"crmguard/internal/config"
)

// Poller runs the Evaluator on a fixed interval until its context is
// cancelled or Close is called.
type Poller struct {
	evaluator    *Evaluator
	logger       *slog.Logger
	cfg          *config.AlertConfig
	onAlert      func(Alert)
	mu           sync.Mutex
	notifiers    map[Type]*rate.Sometimes
	wg           sync.WaitGroup
	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// NewPoller creates a poller. onAlert, when set, is called for every alert of
// every evaluation; log notifications of one Type are throttled to one per
// NotifyInterval.
func NewPoller(evaluator *Evaluator, cfg *config.AlertConfig, logger *slog.Logger, onAlert func(Alert)) *Poller {
	return &Poller{
		evaluator:  evaluator,
		logger:     logger,
		cfg:        cfg,
		onAlert:    onAlert,
		notifiers:  make(map[Type]*rate.Sometimes),
		shutdownCh: make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.loop(ctx)

	p.logger.Info("alert poller started",
		slog.Duration("interval", p.cfg.PollInterval),
		slog.Duration("notify_interval", p.cfg.NotifyInterval))
}

func (p *Poller) Close() {
	p.shutdownOnce.Do(func() {
		close(p.shutdownCh)
		p.wg.Wait()
	})
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdownCh:
			return
		case <-ticker.C:
			p.safePoll()
		}
	}
}

func (p *Poller) safePoll() {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("alert evaluation panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()
	p.Poll()
}

// Poll runs one evaluation and returns the alerts it raised.
func (p *Poller) Poll() []Alert {
	alerts := p.evaluator.Check()
	for _, a := range alerts {
		if p.onAlert != nil {
			p.onAlert(a)
		}
		p.notifier(a.Type).Do(func() {
			p.notify(a)
		})
	}
	return alerts
}

func (p *Poller) notifier(t Type) *rate.Sometimes {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.notifiers[t]
	if !ok {
		s = &rate.Sometimes{Interval: p.cfg.NotifyInterval}
		p.notifiers[t] = s
	}
	return s
}

func (p *Poller) notify(a Alert) {
	level := slog.LevelWarn
	if a.Severity == SeverityCritical {
		level = slog.LevelError
	}
	p.logger.Log(context.Background(), level, a.Message,
		slog.String("alert_type", string(a.Type)),
		slog.String("severity", string(a.Severity)),
		slog.Float64("value", a.Value),
		slog.Float64("threshold", a.Threshold))
}
