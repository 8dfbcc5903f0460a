package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"BookStore/internal/bookstore"
	"BookStore/internal/config"
	"BookStore/pkg/kit"
)

func main() {
	service := "bookstore"
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(getenv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	store, err := bookstore.New(cfg.Store.Backend, cfg.Store.Path, cfg.Store.DSN)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}

	if pg, ok := store.(*bookstore.PostgresStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := pg.EnsureSchema(ctx)
		cancel()
		if err != nil {
			log.Fatal("schema init failed", zap.Error(err))
		}
	}

	var limiter *kit.IPRateLimiter
	if cfg.RateLimit.Enabled {
		limiter = kit.NewIPRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}

	s := &bookstore.Server{Store: store, Log: log}

	h := bookstore.NewHandler(s, bookstore.HTTPDeps{
		Log:      log,
		Service:  service,
		Registry: prometheus.NewRegistry(),

		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsToken:   cfg.Metrics.Token,

		RateLimit: limiter,
	})

	if err := kit.RunHTTPServer(cfg.Server.Addr, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
