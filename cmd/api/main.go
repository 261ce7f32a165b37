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
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/tradelink-backend/api"
	"github.com/angelmondragon/tradelink-backend/api/controllers"
	"github.com/angelmondragon/tradelink-backend/api/routes"
	"github.com/angelmondragon/tradelink-backend/internal/delivery"
	"github.com/angelmondragon/tradelink-backend/internal/earnings"
	"github.com/angelmondragon/tradelink-backend/internal/notifications"
	"github.com/angelmondragon/tradelink-backend/internal/orders"
	"github.com/angelmondragon/tradelink-backend/internal/payments"
	"github.com/angelmondragon/tradelink-backend/internal/products"
	"github.com/angelmondragon/tradelink-backend/internal/users"
	"github.com/angelmondragon/tradelink-backend/internal/verification"
	"github.com/angelmondragon/tradelink-backend/pkg/config"
	"github.com/angelmondragon/tradelink-backend/pkg/db"
	"github.com/angelmondragon/tradelink-backend/pkg/instance"
	"github.com/angelmondragon/tradelink-backend/pkg/logger"
	"github.com/angelmondragon/tradelink-backend/pkg/metrics"
	"github.com/angelmondragon/tradelink-backend/pkg/migrate"
	"github.com/angelmondragon/tradelink-backend/pkg/redis"
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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	notifier, closeNotifier, err := buildNotifier(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	dispatcher, err := notifications.NewDispatcher(notifier.Notifier, logg, engineMetrics, cfg.Notifier.Timeout)
	if err != nil {
		return err
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())
	earningsRepo := earnings.NewRepository(dbClient.DB())

	calculator, err := earnings.NewCalculator(cfg.Commission.Default())
	if err != nil {
		return err
	}
	builder, err := orders.NewBuilder(orders.BuilderParams{
		Orders:     ordersRepo,
		Products:   productsRepo,
		Users:      usersRepo,
		Earnings:   earningsRepo,
		Calculator: calculator,
		Logger:     logg,
	})
	if err != nil {
		return err
	}
	mirror, err := orders.NewMirror(dbClient, productsRepo, logg)
	if err != nil {
		return err
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       ordersRepo,
		Users:      usersRepo,
		Earnings:   earningsRepo,
		Builder:    builder,
		Mirror:     mirror,
		Tx:         dbClient,
		Dispatcher: dispatcher,
		Metrics:    engineMetrics,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	guard, err := payments.NewGuard(payments.GuardParams{
		Tx:      dbClient,
		Orders:  ordersRepo,
		Users:   usersRepo,
		Builder: builder,
		Gateway: cfg.Gateway,
		Metrics: engineMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	deliverySvc, err := delivery.NewService(delivery.ServiceParams{
		Orders:      ordersRepo,
		Users:       usersRepo,
		Tx:          dbClient,
		Dispatcher:  dispatcher,
		TTL:         cfg.Delivery.OTPTTL,
		MaxAttempts: cfg.Delivery.MaxAttempts,
		Metrics:     engineMetrics,
		Logger:      logg,
	})
	if err != nil {
		return err
	}

	earningsSvc, err := earnings.NewService(earningsRepo, logg, engineMetrics)
	if err != nil {
		return err
	}

	verificationStore, closeStore, err := buildVerificationStore(cfg, redisClient)
	if err != nil {
		return err
	}
	defer closeStore()

	verificationSvc, err := verification.NewService(verification.ServiceParams{
		Store:      verificationStore,
		Dispatcher: dispatcher,
		Config:     cfg.Verification,
		Hashing:    cfg.Password,
		Logger:     logg,
	})
	if err != nil {
		return err
	}

	readiness := []controllers.Dependency{
		{Name: "database", Pinger: dbClient},
		{Name: "redis", Pinger: redisClient},
	}
	if notifier.PubSub != nil {
		readiness = append(readiness, controllers.Dependency{Name: "pubsub", Pinger: notifier.PubSub})
	}

	router := routes.NewRouter(routes.Dependencies{
		Config:       cfg,
		Logger:       logg,
		Readiness:    readiness,
		Idempotency:  redisClient,
		HTTPMetrics:  httpMetrics,
		Gatherer:     prometheus.DefaultGatherer,
		Orders:       ordersSvc,
		Payments:     guard,
		Delivery:     deliverySvc,
		Earnings:     earningsSvc,
		Verification: verificationSvc,
	})
	server := api.NewServer(cfg, router)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      server.Addr,
		"instance":  instance.ID(),
		"notifiers": cfg.Notifier.Drivers,
	})
	logg.Info(ctx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		logg.Info(ctx, "shutting down api server")
		err := server.Shutdown(shutdownCtx)
		if waitErr := dispatcher.Wait(shutdownCtx); waitErr != nil {
			logg.Warn(ctx, "notifications still in flight at shutdown")
		}
		return err
	})

	return g.Wait()
}

// buildVerificationStore picks the code store named in config. The returned
// closer is always safe to call.
func buildVerificationStore(cfg *config.Config, redisClient *redis.Client) (verification.Store, func(), error) {
	if cfg.Verification.Store == config.VerificationStoreMemory {
		store := verification.NewMemoryStore(time.Minute)
		return store, func() { _ = store.Close() }, nil
	}
	store, err := verification.NewRedisStore(redisClient)
	if err != nil {
		return nil, func() {}, err
	}
	return store, func() {}, nil
}
