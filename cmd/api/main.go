package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/foodyzone-backend/api/controllers"
	"github.com/angelmondragon/foodyzone-backend/api/routes"
	"github.com/angelmondragon/foodyzone-backend/internal/cart"
	"github.com/angelmondragon/foodyzone-backend/internal/catalog"
	"github.com/angelmondragon/foodyzone-backend/internal/kvstore"
	"github.com/angelmondragon/foodyzone-backend/internal/orders"
	"github.com/angelmondragon/foodyzone-backend/internal/promos"
	"github.com/angelmondragon/foodyzone-backend/internal/sessions"
	"github.com/angelmondragon/foodyzone-backend/pkg/config"
	"github.com/angelmondragon/foodyzone-backend/pkg/db"
	"github.com/angelmondragon/foodyzone-backend/pkg/instance"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
	"github.com/angelmondragon/foodyzone-backend/pkg/migrate"
	"github.com/angelmondragon/foodyzone-backend/pkg/pubsub"
	"github.com/angelmondragon/foodyzone-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	readiness := []controllers.ReadinessCheck{{Name: "database", Pinger: dbClient}}

	var kv cart.KV
	if cfg.Storage.KVBackend == config.KVBackendRedis {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		kv = kvstore.NewRedis(redisClient, cfg.Storage.KVTTL)
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	} else {
		kv = kvstore.NewGorm(dbClient.DB(), cfg.Storage.KVTTL)
	}

	var sink orders.Sink = orders.NewLogSink(logg)
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		sink, err = orders.NewPubSubSink(psClient.OrdersPublisher(), logg, cfg.Checkout.OrderSubmitTimeout)
		if err != nil {
			logg.Error(context.Background(), "failed to create order sink", err)
			os.Exit(1)
		}
		readiness = append(readiness, controllers.ReadinessCheck{Name: "pubsub", Pinger: psClient})
	}

	promoRegistry := promos.Default()
	menu, err := catalog.NewService(catalog.DefaultMenu(), promoRegistry)
	if err != nil {
		logg.Error(context.Background(), "failed to build catalog", err)
		os.Exit(1)
	}

	orderRegistry, err := orders.NewRegistry(orders.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order registry", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckout(prometheus.DefaultRegisterer)

	sessionManager, err := sessions.NewManager(sessions.Deps{
		Catalog:           menu,
		Promos:            promoRegistry,
		KV:                kv,
		Registry:          orderRegistry,
		Sink:              sink,
		Logger:            logg,
		Metrics:           checkoutMetrics,
		IdleTTL:           cfg.Session.IdleTTL,
		ConfirmationDelay: cfg.Checkout.ConfirmationDelay,
		PersistTimeout:    cfg.Checkout.PersistTimeout,
		SubmitTimeout:     cfg.Checkout.OrderSubmitTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"kv_backend": cfg.Storage.KVBackend,
		"pubsub":     cfg.PubSub.Enabled(),
		"instance":   instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, checkoutMetrics, nil,
			menu, promoRegistry, sessionManager, orderRegistry, readiness...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionManager.Run(sigCtx, cfg.Session.SweepInterval)

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			sessionManager.Close()
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	// waits for in-flight cart writes before the stores close
	sessionManager.Close()
	logg.Info(ctx, "api server stopped")
}
