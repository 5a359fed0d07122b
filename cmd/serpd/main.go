package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fbarthel/serpd/internal/config"
	"github.com/fbarthel/serpd/internal/fingerprint"
	"github.com/fbarthel/serpd/internal/history"
	"github.com/fbarthel/serpd/internal/history/jsonl"
	"github.com/fbarthel/serpd/internal/history/postgres"
	"github.com/fbarthel/serpd/internal/history/sqlite"
	"github.com/fbarthel/serpd/internal/metrics"
	"github.com/fbarthel/serpd/internal/scraper"
	"github.com/fbarthel/serpd/internal/search"
	"github.com/fbarthel/serpd/internal/serp"
	"github.com/fbarthel/serpd/internal/server"
	"github.com/fbarthel/serpd/pkg/proxy"
	"github.com/fbarthel/serpd/pkg/ratelimit"
	"github.com/fbarthel/serpd/pkg/useragent"
)

var version = "0.4.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
		dev        bool
	)

	root := &cobra.Command{
		Use:          "serpd",
		Short:        "serpd serves Google search results as JSON over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("dev") {
				cfg.Dev = dev
			}
			return run(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	root.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	root.Flags().BoolVar(&dev, "dev", false, "include error detail in responses")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the serpd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("serpd %s\n", version)
		},
	})

	return root
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	proxyPool, err := buildProxyPool(cfg.Scrape)
	if err != nil {
		return err
	}

	limiter := ratelimit.New(cfg.Scrape.Delay, 0.1)
	defer limiter.Stop()

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:      cfg.Scrape.Timeout,
		MaxRetries:   cfg.Scrape.MaxRetries,
		UseCookieJar: true,
		ProxyPool:    proxyPool,
		UAPool:       useragent.NewPool(nil),
		Fingerprint:  fingerprint.Profile(cfg.Scrape.Fingerprint),
		Limiter:      limiter,
	})
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	provider := serp.NewGoogle(serp.GoogleConfig{
		Concurrency:   cfg.Scrape.Concurrency,
		RespectRobots: cfg.Scrape.RespectRobots,
	}, fetcher, logger)

	backend, err := buildHistory(ctx, cfg.History)
	if err != nil {
		return err
	}
	defer backend.Close()

	svc := search.New(provider, backend, cfg.Scrape.MaxPages, logger)

	var metricsSrv *metrics.Server
	if cfg.MetricsPort > 0 {
		metricsSrv = metrics.Start(cfg.MetricsPort)
		logger.Info("metrics listening", "port", cfg.MetricsPort)
	}

	srv := server.New(server.Config{
		Port:       cfg.Port,
		Dev:        cfg.Dev,
		CORS:       cfg.CORS.Enabled,
		CORSOrigin: cfg.CORS.Origin,
	}, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serpd listening", "port", cfg.Port, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Stop(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func buildProxyPool(cfg config.ScrapeConfig) (*proxy.Pool, error) {
	if len(cfg.Proxies) == 0 && cfg.ProxyFile == "" {
		return nil, nil
	}

	pool := proxy.NewPool(proxy.Config{})
	if err := pool.Add(cfg.Proxies...); err != nil {
		return nil, fmt.Errorf("add proxies: %w", err)
	}
	if cfg.ProxyFile != "" {
		if err := pool.LoadFile(cfg.ProxyFile); err != nil {
			return nil, fmt.Errorf("load proxy file: %w", err)
		}
	}
	return pool, nil
}

func buildHistory(ctx context.Context, cfg config.HistoryConfig) (history.Backend, error) {
	switch cfg.Backend {
	case "", "none":
		return history.Nop{}, nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "serpd.db"
		}
		return sqlite.New(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, errors.New("history.dsn is required for the postgres backend")
		}
		return postgres.New(ctx, cfg.DSN)
	case "jsonl":
		path := cfg.DSN
		if path == "" {
			path = "serpd-history.jsonl"
		}
		return jsonl.New(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
