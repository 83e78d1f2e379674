package engine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ridepulse/internal/admin"
	"ridepulse/internal/config"
	"ridepulse/internal/fare"
	"ridepulse/internal/httpapi"
	"ridepulse/internal/jwt"
	"ridepulse/internal/lifecycle"
	"ridepulse/internal/locator"
	"ridepulse/internal/logger"
	"ridepulse/internal/postgres"
	"ridepulse/internal/rabbitmq"
	"ridepulse/internal/rating"
	"ridepulse/internal/routing"
	"ridepulse/internal/ws"

	"github.com/redis/go-redis/v9"
)

// Options holds the runtime knobs passed from the command line.
type Options struct {
	ConfigPath    string
	MaxConcurrent int
	Prefetch      int
}

// Run wires the trip engine and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// static request ID for startup logs
	log := logger.New("trip-engine")
	ctx = log.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(opts.ConfigPath)
	if err != nil {
		log.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr(),
		DB:   cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err, nil)
		return err
	}

	rmq, err := rabbitmq.Connect(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	pub := &rabbitmq.EventPublisher{Client: rmq}
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// repositories
	tripRepo := postgres.NewTripRepo(pool)
	eventRepo := postgres.NewTripEventRepo(pool)
	messageRepo := postgres.NewMessageRepo(pool)
	driverRepo := postgres.NewDriverRepo(pool)
	riderRepo := postgres.NewRiderRepo(pool)
	geoIndex := locator.NewRedisIndex(redisClient)

	// external providers
	osrm := routing.NewOSRMClient(cfg.Routing.BaseURL, cfg.RoutingTimeout())
	nominatim := routing.NewNominatimClient(cfg.Routing.GeocodeURL, cfg.RoutingTimeout())

	// services
	locatorSvc := locator.NewService(geoIndex, driverRepo, log)
	registry := ws.NewRegistry(log)
	tripSvc := lifecycle.NewTripService(lifecycle.Deps{
		Logger:   log,
		Trips:    tripRepo,
		Events:   eventRepo,
		Messages: messageRepo,
		Drivers:  driverRepo,
		Riders:   riderRepo,
		GeoIndex: geoIndex,
		Locator:  locatorSvc,
		Routing:  osrm,
		Geocoder: nominatim,
		Notifier: registry,
		Pub:      pub,
	})
	fareSvc := fare.NewEstimator(osrm, log)
	ratingSvc := rating.NewService(log, tripRepo, driverRepo, riderRepo, eventRepo, registry, pub)
	adminSvc := admin.NewService(log, tripRepo, driverRepo, eventRepo, registry)
	gateway := ws.NewGateway(log, jwtManager, registry, locatorSvc, tripSvc)

	// background consumer mirroring status and rating messages into the log
	go func() {
		if err := rabbitmq.RunAuditLog(ctx, rmq, log, opts.Prefetch); err != nil && ctx.Err() == nil {
			log.Error(ctx, "audit_consumer_stopped", "Audit log consumer terminated", err, nil)
		}
	}()

	health := func(ctx context.Context) map[string]string {
		checks := map[string]string{"postgres": "ok", "redis": "ok", "rabbitmq": "ok"}
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(probeCtx); err != nil {
			checks["postgres"] = err.Error()
		}
		if err := redisClient.Ping(probeCtx).Err(); err != nil {
			checks["redis"] = err.Error()
		}
		if !rmq.Ready() {
			checks["rabbitmq"] = "connection down"
		}
		return checks
	}

	mux := http.NewServeMux()
	httpHandler := httpapi.NewHandler(
		log, jwtManager, tripSvc, fareSvc, ratingSvc, locatorSvc, adminSvc,
		gateway, riderRepo, driverRepo, health,
	)
	httpHandler.RegisterRoutes(mux)

	// global concurrency limiter; blocks when capacity is full
	limitedHandler := withConcurrencyLimit(opts.MaxConcurrent, mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Info(ctx, "service_started",
		fmt.Sprintf("Trip engine started on port %d", cfg.HTTP.Port),
		map[string]any{"port": cfg.HTTP.Port, "max_concurrent": opts.MaxConcurrent},
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info(ctx, "shutdown_started", "Shutting down HTTP server", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.HTTP.Port})
			return err
		}
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
