package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/orgkit/gatehouse/pkg/api"
	"github.com/orgkit/gatehouse/pkg/audit"
	"github.com/orgkit/gatehouse/pkg/auth"
	"github.com/orgkit/gatehouse/pkg/config"
	"github.com/orgkit/gatehouse/pkg/observability"
	"github.com/orgkit/gatehouse/pkg/ratelimit"
	"github.com/orgkit/gatehouse/pkg/reset"
)

func main() {
	migrate := flag.Bool("migrate", true, "Apply pending schema migrations on startup")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.InfoLevel, nil).
			WithError(err).Fatal("failed to load configuration")
	}

	log := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, *migrate); err != nil {
		log.WithError(err).Fatal("gatehouse exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log *observability.Logger, migrate bool) error {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	log.WithField("driver", cfg.Database.Driver).Info("database connected")

	if migrate {
		if err := reset.RunMigrations(ctx, db); err != nil {
			return err
		}
		log.Info("schema migrations applied")
	}

	// Counter store: shared Redis when configured, per-process memory
	// otherwise.
	var (
		counterStore ratelimit.CounterStore
		redisClient  *redis.Client
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		counterStore = ratelimit.NewRedisStore(redisClient, "gatehouse")
		log.WithField("addr", cfg.Redis.Addr).Info("redis counter store connected")
	} else {
		counterStore = ratelimit.NewMemoryStore()
		log.Info("using in-process counter store")
	}

	governor := ratelimit.NewGovernor(counterStore)

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(nil)
	}

	var auditLogger audit.Logger = audit.NopLogger{}
	if cfg.Observability.AuditEnabled {
		dbLogger, err := audit.NewDBLogger(db)
		if err != nil {
			return err
		}
		// Security events persist in the background so a slow insert
		// never stalls a request.
		auditLogger = audit.NewAsyncLogger(dbLogger, log)
	}
	defer auditLogger.Close()

	var notifier reset.Notifier = reset.NewLogNotifier(log)
	if cfg.Notify.WebhookURL != "" {
		notifier = reset.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.WebhookSecret)
		log.WithField("url", cfg.Notify.WebhookURL).Info("webhook notifications enabled")
	}

	workflow := reset.NewWorkflow(
		reset.NewSQLStore(db),
		reset.NewSQLIdentityProvider(db),
		notifier,
		log,
	)

	server := api.NewServer(api.Options{
		Workflow:  workflow,
		Validator: auth.NewSessionValidator([]byte(cfg.Session.Secret)),
		Governor:  governor,
		Logger:    log,
		Metrics:   metrics,
		Audit:     auditLogger,
		RecoveryProfile: ratelimit.Profile{
			Name:        "recovery",
			MaxRequests: cfg.RateLimit.RecoveryLimit,
			Window:      cfg.RateLimit.RecoveryWindow,
		},
		AdminProfile: ratelimit.Profile{
			Name:        "admin",
			MaxRequests: cfg.RateLimit.AdminLimit,
			Window:      cfg.RateLimit.AdminWindow,
		},
	})

	// Expired window records are reclaimed on a cron schedule so an
	// abusive burst does not pin memory forever.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RateLimit.SweepSchedule, func() {
		removed, err := governor.Sweep(context.Background())
		if err != nil {
			log.WithError(err).Warn("rate limit sweep failed")
			return
		}
		if removed > 0 {
			log.WithField("removed", removed).Debug("swept expired rate records")
			if metrics != nil {
				metrics.RateLimitSweepRemoved.Add(float64(removed))
			}
		}
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	health := observability.NewHealthChecker()
	health.Register("database", func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if redisClient != nil {
		health.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	healthMux := http.NewServeMux()
	healthMux.Handle("/healthz", health.Handler())
	if metrics != nil {
		healthMux.Handle("/metrics", metrics.Handler())
	}

	apiServer := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:         cfg.HealthAddr(),
		Handler:      healthMux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		log.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := apiServer.Shutdown(shutdownCtx)
		if herr := healthServer.Shutdown(shutdownCtx); herr != nil && err == nil {
			err = herr
		}
		return err
	})

	return group.Wait()
}
