package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/chat_shop/pkg/authclient"
	"github.com/Skotchmaster/chat_shop/pkg/db"
	"github.com/Skotchmaster/chat_shop/pkg/logging"
	loggingmw "github.com/Skotchmaster/chat_shop/pkg/middleware/logging"
	"github.com/Skotchmaster/chat_shop/services/order/internal/bot"
	"github.com/Skotchmaster/chat_shop/services/order/internal/config"
	"github.com/Skotchmaster/chat_shop/services/order/internal/events"
	"github.com/Skotchmaster/chat_shop/services/order/internal/httpserver"
	"github.com/Skotchmaster/chat_shop/services/order/internal/notify"
	"github.com/Skotchmaster/chat_shop/services/order/internal/proofstore"
	"github.com/Skotchmaster/chat_shop/services/order/internal/repo"
	"github.com/Skotchmaster/chat_shop/services/order/internal/search"
	"github.com/Skotchmaster/chat_shop/services/order/internal/service"
	"github.com/Skotchmaster/chat_shop/services/order/internal/session"
	"github.com/Skotchmaster/chat_shop/services/order/internal/telegram"
)

func main() {
	_ = godotenv.Load("services/order/.env")
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config_invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("order_service_exit", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.ServiceConfig, logger *slog.Logger) error {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return fmt.Errorf("db init: %w", err)
	}
	defer db.Close(gdb)

	r := repo.New(gdb)
	if err := r.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	proofs, err := proofstore.NewDisk(cfg.ProofDir, cfg.ProofURLPrefix)
	if err != nil {
		return fmt.Errorf("proof store: %w", err)
	}

	tg, err := telegram.New(cfg.BotToken, telegram.Options{})
	if err != nil {
		return err
	}
	logger.Info("telegram_connected", "bot", tg.Username())

	var publisher service.EventPublisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	outbox := service.Outbox{
		Notifier: notify.NewDispatcher(tg, cfg.NotifyTimeout),
		Events:   publisher,
		Topic:    cfg.OrderEventsTopic,
	}
	orders := &service.OrderService{Repo: r, Outbox: outbox}

	b := &bot.Bot{
		Messenger: tg,
		Accounts:  &service.AccountService{Repo: r},
		Cart:      &service.CartService{Repo: r},
		Checkout:  &service.CheckoutService{Repo: r, Outbox: outbox, Bank: cfg.Bank},
		Proofs: &service.ProofService{
			Repo:            r,
			Fetcher:         tg,
			Store:           proofs,
			Outbox:          outbox,
			DownloadTimeout: cfg.ProofDownloadTimeout,
		},
		Orders:   orders,
		Catalog:  r,
		Search:   newSearcher(ctx, cfg, r, logger),
		Sessions: newSessions(ctx, cfg, logger),
	}

	pool := telegram.NewPool(cfg.BotWorkers, b.Handle)
	pool.Start(ctx)
	defer pool.Close()

	e := newServer(cfg, logger)
	deps := &httpserver.Deps{
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders},
		JWTSecret:      cfg.JWTAccessSecret,
		ProofDir:       proofs.Dir(),
		ProofURLPrefix: proofs.URLPrefix(),
	}
	if cfg.AuthHTTPURL != "" {
		deps.AuthClient = authclient.NewClient(cfg.AuthHTTPURL)
	}
	if cfg.UseWebhook() {
		deps.Webhook = &httpserver.WebhookHTTP{Secret: cfg.BotWebhookSecret, Sink: pool}
	}
	httpserver.Register(e, deps)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http_server_start", "port", cfg.ServerPort)
		if err := e.Start(":" + strconv.Itoa(cfg.ServerPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("echo start: %w", err)
		}
	}()

	if cfg.UseWebhook() {
		if err := tg.SetWebhook(cfg.WebhookEndpoint()); err != nil {
			return err
		}
		logger.Info("telegram_webhook_set", "url", cfg.BotWebhookURL)
	} else {
		if err := tg.SetWebhook(""); err != nil {
			logger.Warn("telegram_webhook_delete_error", "error", err)
		}
		go func() {
			logger.Info("telegram_polling_start", "workers", cfg.BotWorkers)
			if err := tg.Poll(ctx, pool); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case runErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("echo_shutdown_error", "error", err)
	}

	logger.Info("server_stopped")
	return runErr
}

func newServer(cfg config.ServiceConfig, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))
	return e
}

func newSessions(ctx context.Context, cfg config.ServiceConfig, logger *slog.Logger) session.Store {
	if cfg.RedisAddr == "" {
		return session.NewMemory(cfg.BrowseCapacity, cfg.BrowseTTL)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis_unavailable", "addr", cfg.RedisAddr, "error", err, "fallback", "memory")
		_ = rdb.Close()
		return session.NewMemory(cfg.BrowseCapacity, cfg.BrowseTTL)
	}
	return session.NewRedis(rdb, cfg.BrowseTTL)
}

// newSearcher prefers Elasticsearch and falls back to database matching when
// the cluster is not configured or not reachable at startup.
func newSearcher(ctx context.Context, cfg config.ServiceConfig, r *repo.GormRepo, logger *slog.Logger) search.Searcher {
	fallback := &search.Database{Repo: r}
	if cfg.ElasticURL == "" {
		return fallback
	}

	es, err := search.NewElastic(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword, cfg.ElasticIndex)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = es.Ping(pingCtx)
		cancel()
	}
	if err != nil {
		logger.Warn("elastic_unavailable", "error", err, "fallback", "database")
		return fallback
	}

	products, err := r.ListProducts(ctx)
	if err != nil {
		logger.Warn("elastic_reindex_error", "error", err)
		return es
	}
	logger.Info("elastic_reindexed", "indexed", es.Reindex(ctx, products), "total", len(products))
	return es
}

