// Command marketfieldd runs the collapse-field analytics pipeline: it
// loads configuration, wires a DataProvider (the demo feed, used directly
// or behind the breaker/rate-limit adapter), persistence and broadcast
// collaborators, then drives the scheduler until interrupted.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/collapsefield/marketfield/internal/broadcast"
	"github.com/collapsefield/marketfield/internal/config"
	"github.com/collapsefield/marketfield/internal/httpapi"
	"github.com/collapsefield/marketfield/internal/metrics"
	"github.com/collapsefield/marketfield/internal/obslog"
	"github.com/collapsefield/marketfield/internal/persistence"
	"github.com/collapsefield/marketfield/internal/persistence/postgres"
	"github.com/collapsefield/marketfield/internal/persistence/rediscache"
	"github.com/collapsefield/marketfield/internal/provider"
	"github.com/collapsefield/marketfield/internal/scheduler"
	"github.com/collapsefield/marketfield/internal/symbolproc"
)

const version = "v0.1.0"

func main() {
	var (
		configPath    string
		providersPath string
		universePath  string
		pretty        bool
		httpAddr      string
	)

	rootCmd := &cobra.Command{
		Use:     "marketfieldd",
		Short:   "Streaming collapse-field market analytics daemon",
		Version: version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, REST facade and broadcast hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath, providersPath, universePath, httpAddr, pretty)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", "config/analytics.yaml", "Analytics config file")
	serveCmd.Flags().StringVar(&providersPath, "providers", "config/providers.yaml", "Provider/cadence config file")
	serveCmd.Flags().StringVar(&universePath, "universe", "config/universe.yaml", "Symbol universe file")
	serveCmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "REST/WebSocket listen address")
	serveCmd.Flags().BoolVar(&pretty, "pretty", false, "Use a human-readable console log writer")

	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(configPath, providersPath, universePath, httpAddr string, pretty bool) error {
	logger := obslog.New(pretty, zerolog.InfoLevel)
	log.Logger = logger

	analyticsCfg, err := loadOrDefault(configPath, config.Load, config.Default())
	if err != nil {
		return err
	}
	providersCfg, err := config.LoadProviders(providersPath)
	if err != nil {
		return err
	}
	universe, err := loadUniverse(universePath)
	if err != nil {
		return err
	}

	// Invalid configuration is fatal here, before the scheduler starts.
	var fatal []string
	fatal = append(fatal, analyticsCfg.Validate()...)
	fatal = append(fatal, providersCfg.Validate()...)
	fatal = append(fatal, universe.Validate()...)
	if len(fatal) > 0 {
		for _, msg := range fatal {
			logger.Error().Str("violation", msg).Msg("invalid configuration")
		}
		return fmt.Errorf("%d configuration violations, aborting before scheduler start", len(fatal))
	}

	registry := symbolproc.NewRegistry(analyticsCfg)
	for _, symbol := range universe.Symbols {
		registry.Get(symbol)
	}

	dataSource := buildDataProvider(providersCfg)

	registerer := prometheus.DefaultRegisterer
	metricsCollectors := metrics.New(registerer)

	var repo persistence.SnapshotRepo
	if dsn := os.Getenv("MARKETFIELD_DATABASE_URL"); dsn != "" {
		pg, err := postgres.Open(dsn, 5*time.Second)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		repo = pg
	}

	var cache *rediscache.Cache
	if addr := os.Getenv("MARKETFIELD_REDIS_ADDR"); addr != "" {
		cache = rediscache.New(addr, 0, 30*time.Second)
	}

	hub := broadcast.NewHub().OnDrop(metricsCollectors.BroadcastDrops.Inc)
	go hub.Run()
	defer hub.Stop()

	sched := scheduler.New(registry, dataSource, repo, cacheOrNil(cache), hub, providersCfg.Cadence, logger).
		WithMetrics(metricsCollectors)

	go func() {
		for err := range sched.Errors() {
			logger.Error().Err(err).Msg("downstream failure surfaced")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	api := httpapi.New(repo, cacheReaderOrNil(cache), hub.ServeWS, logger)
	server := &http.Server{
		Addr:         httpAddr,
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpAddr).Msg("REST/WebSocket facade listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		return fmt.Errorf("http server error: %w", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func loadOrDefault(path string, load func(string) (config.Config, error), def config.Config) (config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		return def, nil
	}
	return load(path)
}

func loadUniverse(path string) (config.Universe, error) {
	if _, err := os.Stat(path); err != nil {
		return config.Universe{Symbols: []string{"BTC-USD", "ETH-USD"}}, nil
	}
	return config.LoadUniverse(path)
}

func buildDataProvider(cfg config.ProvidersConfig) provider.DataProvider {
	demo := provider.NewDemoProvider(time.Now().UnixNano())
	if cfg.UseDemoData {
		return demo
	}
	// A real upstream client would replace demo here; until one is wired
	// the breaker/rate-limit adapter still exercises the same resilience
	// path against the demo feed.
	return provider.NewBreakerAdapter(demo, cfg.Breaker, cfg.RateLimit)
}

func cacheOrNil(c *rediscache.Cache) scheduler.LatestCacheWriter {
	if c == nil {
		return nil
	}
	return c
}

func cacheReaderOrNil(c *rediscache.Cache) httpapi.LatestCacheReader {
	if c == nil {
		return nil
	}
	return c
}
