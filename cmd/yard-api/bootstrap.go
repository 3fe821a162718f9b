package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/YardBox/config"
	yardapi "github.com/BearBump/YardBox/internal/api/yard_api"
	"github.com/BearBump/YardBox/internal/broker/kafka"
	"github.com/BearBump/YardBox/internal/cache/rediscache"
	"github.com/BearBump/YardBox/internal/services/dwell"
	"github.com/BearBump/YardBox/internal/services/facility"
	"github.com/BearBump/YardBox/internal/storage"
	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr     = ":8080"
	defaultHistoryTopic = "yard.history"
	defaultStateTTL     = 30 * time.Second
)

type yardAPIApp struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    yardAPIOpts
	api     *yardapi.YardAPI
	closers []func() error
}

func mustBootstrapYardAPI() *yardAPIApp {
	// .env не обязателен
	_ = godotenv.Load()

	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.YardBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = defaultHTTPAddr
	}
	loc := mustLoadLocation(cfg.YardBox.Timezone)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st := mustOpenStoreWithRetry(ctx, cfg, 60*time.Second)
	app := &yardAPIApp{
		ctx:     ctx,
		cancel:  cancel,
		opts:    yardAPIOpts{httpAddr: httpAddr, swaggerPath: swaggerPath},
		closers: []func() error{st.Close},
	}

	svc := facility.New(st, st)
	api := yardapi.New(svc, dwell.NewCalculator(st, st, st, loc).WithRetention(cfg.YardBox.DwellRetentionDays))

	if cfg.Redis.Enabled() {
		ttl := time.Duration(cfg.YardBox.StateCacheTTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = defaultStateTTL
		}
		rc := rediscache.New(cfg.Redis.Addr())
		rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
		svc.WithCache(rc, ttl)
		api.WithRateLimit(rl, cfg.YardBox.RateLimitPerMinute)
		app.closers = append(app.closers, rc.Close, rl.Close)
		slog.Info("redis enabled", "addr", cfg.Redis.Addr(), "stateTTL", ttl.String())
	}

	if cfg.Kafka.Enabled() {
		topic := cfg.Kafka.HistoryTopicName
		if topic == "" {
			topic = defaultHistoryTopic
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers())
		svc.WithPublisher(producer, topic)
		app.closers = append(app.closers, producer.Close)
		slog.Info("history events enabled", "brokers", cfg.Kafka.Brokers(), "topic", topic)
	}

	app.api = api
	return app
}

func mustLoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("неизвестная таймзона %q: %v", name, err))
	}
	return loc
}

// mustOpenStoreWithRetry waits for the backend (postgres in compose starts slower than we do).
func mustOpenStoreWithRetry(ctx context.Context, cfg *config.Config, wait time.Duration) storage.Store {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := storage.Open(ctx, cfg)
		if err == nil {
			return st
		}
		lastErr = err
		slog.Warn("storage is not ready", "driver", cfg.Storage.Driver, "error", err.Error())
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("storage is not ready after %s: %v", wait, lastErr))
}

func (a *yardAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close", "error", err.Error())
		}
	}
}

func (a *yardAPIApp) Run() error {
	return runYardAPI(a.ctx, a.opts, a.api)
}
