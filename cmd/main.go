package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/YelzhanWeb/orderboard/internal/adapter/logger"
	"github.com/YelzhanWeb/orderboard/internal/adapter/memory"
	"github.com/YelzhanWeb/orderboard/internal/adapter/postgres"
	"github.com/YelzhanWeb/orderboard/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/orderboard/internal/adapter/recipe"
	"github.com/YelzhanWeb/orderboard/internal/app/kitchen"
	"github.com/YelzhanWeb/orderboard/internal/app/order"
	"github.com/YelzhanWeb/orderboard/internal/app/realtime"
	"github.com/YelzhanWeb/orderboard/internal/app/reporting"
	"github.com/YelzhanWeb/orderboard/internal/app/storecall"
	"github.com/YelzhanWeb/orderboard/internal/config"
	"github.com/YelzhanWeb/orderboard/internal/domain"
	"github.com/YelzhanWeb/orderboard/internal/interfaces"
	"github.com/YelzhanWeb/orderboard/internal/metrics"

	amqpAdapter "github.com/YelzhanWeb/orderboard/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/orderboard/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "api", "Service mode: api, snapshot-subscriber")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	prefetch := flag.Int("prefetch", 50, "RabbitMQ prefetch count")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	// Initialize logger
	lgr := logger.New(*mode, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Route to appropriate service
	switch *mode {
	case "api":
		err = runAPI(ctx, cfg, lgr, *prefetch)
	case "snapshot-subscriber":
		err = runSnapshotSubscriber(ctx, cfg, lgr, *prefetch)
	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		lgr.Error("service_failed", "Service stopped with error", "shutdown", nil, err)
		os.Exit(1)
	}
	lgr.Info("service_stopped", "Service stopped", "shutdown", nil)
}

// loadConfig falls back to defaults plus environment when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return config.Parse(nil)
	}
	return cfg, err
}

func openStore(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.OrderRepository, func(), error) {
	if cfg.Store.Backend == config.BackendMemory {
		lgr.Info("store_selected", "Using in-memory order store", "startup", nil)
		return memory.NewOrderRepository(), func() {}, nil
	}

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return postgres.NewOrderRepository(db), db.Close, nil
}

func openRecipes(ctx context.Context, cfg *config.Config, lgr logger.Logger) (interfaces.RecipeCatalog, func()) {
	client := recipe.NewClient(cfg.Recipes.BaseURL, cfg.Recipes.Timeout)
	if cfg.Redis.Addr == "" {
		return client, func() {}
	}

	rdb, err := recipe.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		lgr.Error("redis_unavailable", "Recipe cache disabled", "startup", map[string]interface{}{
			"addr": cfg.Redis.Addr,
		}, err)
		return client, func() {}
	}

	lgr.Info("redis_connected", "Connected to Redis recipe cache", "startup", map[string]interface{}{
		"addr": cfg.Redis.Addr,
	})
	return recipe.NewCachedCatalog(client, rdb, cfg.Recipes.CacheTTL, lgr), func() { rdb.Close() }
}

func runAPI(ctx context.Context, cfg *config.Config, lgr logger.Logger, prefetch int) error {
	// Initialize repositories
	repo, closeStore, err := openStore(ctx, cfg, lgr)
	if err != nil {
		return fmt.Errorf("failed to open order store: %w", err)
	}
	defer closeStore()

	hub := realtime.NewHub(lgr)
	if err := hub.Load(ctx, repo); err != nil {
		return err
	}

	// Initialize messaging
	var publisher interfaces.SnapshotPublisher = hub
	var consumer interfaces.SnapshotConsumer
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer mqConn.Close()

		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
		publisher = realtime.Tee{hub, rabbitmq.NewPublisher(mqConn)}
		consumer = rabbitmq.NewConsumer(mqConn, prefetch, lgr)
	}

	recipes, closeRecipes := openRecipes(ctx, cfg, lgr)
	defer closeRecipes()

	// Initialize services
	clock := domain.SystemClock{}
	policy := storecall.Policy{Timeout: cfg.Store.Timeout, MaxAttempts: cfg.Store.MaxAttempts}
	thresholds := metrics.Thresholds{KitchenTarget: cfg.Metrics.KitchenTarget, KitchenCeiling: cfg.Metrics.KitchenCeiling}

	orderService := order.NewService(repo, publisher, clock, policy, lgr)
	kitchenService := kitchen.NewService(repo, publisher, clock, policy, lgr)
	reportingService := reporting.NewService(repo, recipes, thresholds, clock, policy, lgr)

	// Initialize HTTP handlers
	handler := httpAdapter.NewRouter(httpAdapter.Handlers{
		Orders:    httpAdapter.NewOrderHandler(orderService, lgr),
		Kitchen:   httpAdapter.NewKitchenHandler(kitchenService, lgr),
		Reporting: httpAdapter.NewReportingHandler(reportingService, clock, lgr),
		Stream:    httpAdapter.NewStreamHandler(hub, lgr),
	}, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lgr.Info("service_started", fmt.Sprintf("Order board API started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
			"port":    cfg.HTTP.Port,
			"store":   cfg.Store.Backend,
			"fan_out": cfg.RabbitMQ.Enabled,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if consumer != nil {
		snapshots := amqpAdapter.NewSnapshotHandler(hub, lgr)
		g.Go(func() error {
			return consumer.ConsumeSnapshots(gctx, snapshots.HandleSnapshot)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		lgr.Info("shutdown_initiated", "Shutting down order board API", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
		return gctx.Err()
	})

	return g.Wait()
}

func runSnapshotSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger, prefetch int) error {
	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, prefetch, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(os.Stdout, lgr)

	lgr.Info("service_started", "Snapshot subscriber started", "startup", map[string]interface{}{
		"exchange": rabbitmq.SnapshotExchange,
	})

	return consumer.ConsumeSnapshots(ctx, notificationHandler.HandleNotification)
}
