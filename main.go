package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/netutil"

	"crmguard/internal/alert"
	"crmguard/internal/cache"
	"crmguard/internal/config"
	"crmguard/internal/handler"
	"crmguard/internal/logging"
	"crmguard/internal/metrics"
	custommiddleware "crmguard/internal/middleware"
	"crmguard/internal/ratelimit"
	"crmguard/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).
			Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(&cfg.Log)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("application failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	instruments := metrics.NewInstruments(reg)

	store := metrics.NewStore(cfg.Metrics.StoreCapacity)
	recorder := metrics.NewRecorder(store, instruments)

	limiter := ratelimit.New(&cfg.RateLimit, logger)
	limiter.Start(ctx)
	defer limiter.Close()

	evaluator := alert.NewEvaluator(store)
	poller := alert.NewPoller(evaluator, &cfg.Alert, logger, func(a alert.Alert) {
		instruments.AlertsFired.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	})
	poller.Start(ctx)
	defer poller.Close()

	reportCache, err := cache.New(cfg.Dashboard.CacheMaxSizePow2, cfg.Dashboard.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to create report cache: %w", err)
	}
	defer reportCache.Close()

	go collectInfraMetrics(ctx, cfg.Metrics.InfraInterval, instruments, store, limiter, reportCache)

	h := handler.New(store, evaluator, limiter, reportCache, logger, cfg.Dashboard.TopN)
	adminAuth := custommiddleware.AdminAuth(cfg.Admin.Secret)

	ipExtractor, err := custommiddleware.ClientIPExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.IPExtractor = ipExtractor
	e.Use(middleware.Recover())
	e.Use(custommiddleware.RequestID())
	e.Use(custommiddleware.RateLimit(limiter, &cfg.RateLimit, logger, instruments.RateLimited))
	e.Use(custommiddleware.Monitor(custommiddleware.MonitorConfig{
		Recorder:      recorder,
		Logger:        logger,
		Development:   cfg.App.IsDevelopment(),
		SlowThreshold: cfg.Metrics.SlowRequestThreshold,
	}))
	e.Use(middleware.BodyLimit(cfg.Validation.MaxRequestBodySize))
	e.Use(custommiddleware.Screen(
		validation.NewScreener(cfg.Validation.MaxParamLength),
		logger,
		cfg.App.IsDevelopment(),
		instruments.InputRejections,
	))

	h.Register(e, adminAuth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})), adminAuth)

	if cfg.Pprof.Enabled {
		pprofGroup := e.Group("/debug/pprof", custommiddleware.PprofAuth(cfg.Pprof.Secret))
		custommiddleware.RegisterPprof(pprofGroup)
		logger.Info("pprof endpoints enabled", slog.String("path", "/debug/pprof/*"))
	}

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting HTTP server",
		slog.String("addr", httpAddr),
		slog.String("env", cfg.App.Env),
		slog.Int("max_connections", cfg.Server.MaxConnections))

	httpListener, err := listen(httpAddr, cfg.Server.MaxConnections)
	if err != nil {
		return fmt.Errorf("failed to create HTTP listener: %w", err)
	}

	httpServer := newServer(e)
	go serve(httpServer, httpListener, logger, "http")

	var httpsServer *http.Server
	if cfg.TLS.Enabled {
		httpsAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.TLS.Port)
		logger.Info("starting HTTPS server",
			slog.String("addr", httpsAddr),
			slog.Int("max_connections", cfg.Server.MaxConnections))

		httpsListener, err := listen(httpsAddr, cfg.Server.MaxConnections)
		if err != nil {
			return fmt.Errorf("failed to create HTTPS listener: %w", err)
		}

		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}

		tlsListener := tls.NewListener(httpsListener, &tls.Config{
			MinVersion:       tls.VersionTLS13,
			Certificates:     []tls.Certificate{cert},
			CurvePreferences: []tls.CurveID{tls.X25519},
		})

		httpsServer = newServer(e)
		go serve(httpsServer, tlsListener, logger, "https")
	}

	<-ctx.Done()
	logger.Info("shutting down servers")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	if httpsServer != nil {
		if err := httpsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("https server shutdown failed: %w", err)
		}
	}

	return nil
}

func listen(addr string, maxConnections int) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if maxConnections > 0 {
		l = netutil.LimitListener(l, maxConnections)
	}
	return l, nil
}

func newServer(h http.Handler) *http.Server {
	return &http.Server{
		Handler:        h,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 14, // 16KB
	}
}

func serve(srv *http.Server, l net.Listener, logger *slog.Logger, name string) {
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("server", name), slog.String("error", err.Error()))
	}
}

func collectInfraMetrics(
	ctx context.Context,
	interval time.Duration,
	instruments *metrics.Instruments,
	store *metrics.Store,
	limiter *ratelimit.Limiter,
	reportCache *cache.ReportCache,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _, ratio := reportCache.Stats()

			instruments.StoreSize.Set(float64(store.Len()))
			instruments.LimiterWindows.Set(float64(limiter.Len()))
			instruments.HeapUsedBytes.Set(float64(metrics.ReadMemory().HeapUsed))
			instruments.ReportCacheRatio.Set(ratio)
		}
	}
}
