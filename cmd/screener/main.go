package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"BreakoutScreener/internal/collector"
	"BreakoutScreener/internal/config"
	"BreakoutScreener/internal/metrics"
	"BreakoutScreener/internal/notifier"
	"BreakoutScreener/internal/scanner"
	"BreakoutScreener/internal/scheduler"
	"BreakoutScreener/internal/store"
	"BreakoutScreener/internal/universe"
)

func main() {
	once := flag.Bool("once", false, "run a single scan and exit")
	show := flag.Bool("show", false, "print the rolling store and exit")
	flag.Parse()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.Info("BreakoutScreener starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.Warnf("unknown log level %q, keeping info", cfg.LogLevel)
	}
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(cfg)
	if err != nil {
		logrus.Fatalf("init store: %v", err)
	}
	mgr := store.NewManager(backend, cfg.Store.RetentionDays)
	defer mgr.Close()
	logrus.Infof("rolling store: %s (%d days)", backend.Name(), cfg.Store.RetentionDays)

	if *show {
		if err := printStore(ctx, mgr); err != nil {
			logrus.Fatalf("show store: %v", err)
		}
		return
	}

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "alphavantage":
		fetcher = collector.NewAlphaVantageFetcher(cfg.DataSource.APIKey, cfg.Proxy)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	logrus.Infof("data source: %s", fetcher.Name())

	var provider universe.Provider
	if tickers := cfg.StaticTickers(); len(tickers) > 0 {
		provider = &universe.StaticProvider{List: tickers}
		logrus.Infof("universe: %d configured symbols", len(tickers))
	} else {
		provider = universe.NewWikipediaProvider(cfg.Universe.Sources, cfg.Proxy)
		logrus.Infof("universe: %d index listings", len(cfg.Universe.Sources))
	}

	m := metrics.New()

	var sender notifier.Sender
	if cfg.Telegram.BotToken != "" {
		tn, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logrus.Fatalf("init telegram: %v", err)
		}
		sender = tn
	} else {
		logrus.Info("telegram not configured, reports go to the log only")
	}

	scan := &scanner.Scanner{
		Universe: provider,
		Fetcher:  fetcher,
		Store:    mgr,
		Params:   cfg.Screen,
		Lookback: cfg.DataSource.LookbackDays,
		Delay:    cfg.DataSource.RequestDelay,
		Location: loc,
		Metrics:  m,
	}
	sched := scheduler.NewScheduler(ctx, scan, sender, loc)

	if *once {
		if _, err := sched.RunNow(); err != nil {
			mgr.Close()
			logrus.Fatalf("scan failed: %v", err)
		}
		return
	}

	if err := sched.RegisterDaily(cfg.Schedule.DailyCron); err != nil {
		logrus.Fatalf("register cron task: %v", err)
	}
	sched.Start()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logrus.Infof("metrics listening on %s", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logrus.Info("RUN_ON_START enabled, executing scan now")
		g.Go(func() error {
			_, _ = sched.RunNow()
			return nil
		})
	}

	logrus.Info("BreakoutScreener is running. Press Ctrl+C to stop.")
	<-gctx.Done()
	logrus.Info("shutdown signal received, stopping...")
	sched.Stop()
	if err := g.Wait(); err != nil {
		logrus.Errorf("shutdown: %v", err)
	}
	logrus.Info("BreakoutScreener stopped")
}

func newBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Store.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		return store.NewRedisBackend(client, cfg.Store.RedisKey), nil
	case "csv":
		return store.NewCSVBackend(cfg.Store.CSVPath), nil
	case "memory":
		return store.NewMemoryBackend(), nil
	default:
		return store.NewSQLiteBackend(cfg.Store.SQLitePath, cfg.Store.Table)
	}
}

func printStore(ctx context.Context, mgr *store.Manager) error {
	rows, err := mgr.Load(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("rolling store is empty")
		return nil
	}
	for _, d := range store.Dates(rows) {
		fmt.Printf("== %s ==\n", d)
		for _, r := range rows {
			if r.Date == d {
				fmt.Printf("  %-8s %s\n", r.Ticker, r.Name)
			}
		}
	}
	return nil
}
