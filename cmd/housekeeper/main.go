package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/foodyzone-backend/internal/housekeeping"
	"github.com/angelmondragon/foodyzone-backend/internal/kvstore"
	"github.com/angelmondragon/foodyzone-backend/pkg/config"
	"github.com/angelmondragon/foodyzone-backend/pkg/db"
	"github.com/angelmondragon/foodyzone-backend/pkg/instance"
	"github.com/angelmondragon/foodyzone-backend/pkg/logger"
	"github.com/angelmondragon/foodyzone-backend/pkg/metrics"
	"github.com/angelmondragon/foodyzone-backend/pkg/migrate"
	"github.com/angelmondragon/foodyzone-backend/pkg/redis"
)

const lockKeyFormat = "fz:housekeeper:lock:%s"

func main() {
	once := flag.Bool("once", false, "run every job a single time and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "housekeeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "housekeeper",
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

	var lock housekeeping.Lock = &housekeeping.LocalLock{}
	if cfg.Redis.Configured() {
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
		lock, err = housekeeping.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Housekeeping.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create housekeeping lock", err)
			os.Exit(1)
		}
	}

	jobMetrics := metrics.NewJobs(prometheus.DefaultRegisterer)
	cartExpiry, err := housekeeping.NewCartExpiryJob(logg, kvstore.NewGorm(dbClient.DB(), cfg.Storage.KVTTL), jobMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart expiry job", err)
		os.Exit(1)
	}

	scheduler, err := housekeeping.NewScheduler(housekeeping.SchedulerParams{
		Logger:   logg,
		Jobs:     []housekeeping.Job{cartExpiry},
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Housekeeping.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Housekeeping.Interval.String(),
		"instance": instance.GetID(),
	})

	if *once {
		if err := scheduler.RunOnce(ctx); err != nil {
			logg.Error(ctx, "housekeeping cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting housekeeper")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "housekeeper stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "housekeeper shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
