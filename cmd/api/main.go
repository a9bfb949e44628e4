package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/mtaasisi/lats-pos-api/internal/app"
	"github.com/mtaasisi/lats-pos-api/internal/backup"
	"github.com/mtaasisi/lats-pos-api/internal/catalog"
	"github.com/mtaasisi/lats-pos-api/internal/common"
	"github.com/mtaasisi/lats-pos-api/internal/config"
	"github.com/mtaasisi/lats-pos-api/internal/customer"
	"github.com/mtaasisi/lats-pos-api/internal/delivery"
	"github.com/mtaasisi/lats-pos-api/internal/health"
	"github.com/mtaasisi/lats-pos-api/internal/obs"
	"github.com/mtaasisi/lats-pos-api/internal/pos"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
	"github.com/mtaasisi/lats-pos-api/internal/sales"
	"github.com/mtaasisi/lats-pos-api/internal/security"
	"github.com/mtaasisi/lats-pos-api/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pos")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdownTracer, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "lats-pos-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Environment:   cfg.AppEnv,
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdownTracer(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool := mustConnectDB(ctx, cfg, logger)
	defer pool.Close()

	migrateSchema(cfg.DatabaseURL, logger)

	redisClient := mustConnectRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	deliveryStore := delivery.NewStore(pool, pricing.Money(cfg.DefaultDelivery))
	if err := deliveryStore.Seed(ctx, delivery.DefaultOptions(moneyFees(cfg.DeliveryFees))); err != nil {
		logger.Fatal().Err(err).Msg("seed delivery options")
	}

	validate := validator.New()

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store:    catalog.NewPGStore(pool),
		Cache:    catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		Logger:   logger,
		PageSize: cfg.CatalogPageSize,
		MaxLimit: cfg.CatalogMaxLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService, Validate: validate})

	salesStore := sales.NewPGStore(pool)
	salesService, err := sales.NewService(sales.ServiceConfig{
		Store:    salesStore,
		Redis:    redisClient,
		CacheTTL: cfg.SalesCacheTTL,
		PageSize: cfg.CatalogPageSize,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise sales service")
	}
	salesHandler := sales.NewHandler(salesService)

	customerService, err := customer.NewService(customer.NewPGStore(pool), logger, cfg.CatalogPageSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise customer service")
	}
	customerHandler := customer.NewHandler(customerService, validate)

	posService := &pos.Service{
		Carts:     &pos.CartStore{R: redisClient, TTL: cfg.CartTTL},
		Products:  catalog.NewPGStore(pool),
		Fees:      deliveryStore,
		Sales:     salesStore,
		Summaries: salesService,
		TaxBps:    cfg.PricingTaxBps,
		Log:       logger,
	}
	posHandler := pos.NewHandler(posService)

	deliveryHandler := delivery.NewHandler(deliveryStore)

	taskClient := asynq.NewClient(asynqRedisOpt(cfg.RedisURL))
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	backupHandler := &backup.Handler{
		Store: backup.NewPGStore(pool),
		Tasks: taskClient,
		Log:   logger,
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	adminGate := security.APIKey{Key: cfg.AdminAPIKey}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production"}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Key", "X-Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	httpMetrics := obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(rateLimiter(cfg, redisClient, logger))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.ListProducts)
		v.Post("/products", catalogHandler.CreateProduct)
		v.Get("/products/markup", catalogHandler.Markup)
		v.Get("/products/{id}", catalogHandler.GetProduct)
		v.Put("/products/{id}", catalogHandler.UpdateProduct)
		v.Delete("/products/{id}", catalogHandler.DeleteProduct)

		v.Get("/categories", catalogHandler.Categories)
		v.Post("/categories", catalogHandler.CreateCategory)
		v.Delete("/categories/{id}", catalogHandler.DeleteCategory)
		v.Get("/brands", catalogHandler.Brands)
		v.Post("/brands", catalogHandler.CreateBrand)
		v.Delete("/brands/{id}", catalogHandler.DeleteBrand)

		v.Route("/customers", func(c chi.Router) {
			c.Get("/", customerHandler.List)
			c.Post("/", customerHandler.Create)
			c.Get("/{id}", customerHandler.Get)
			c.Put("/{id}", customerHandler.Update)
			c.Delete("/{id}", customerHandler.Delete)
		})

		v.Get("/delivery-options", deliveryHandler.List)
		v.With(adminGate.Middleware).Put("/delivery-options/{method}", deliveryHandler.Update)

		v.Route("/carts", func(c chi.Router) {
			c.Post("/", posHandler.CreateCart)
			c.Get("/{cartId}", posHandler.GetCart)
			c.Post("/{cartId}/lines", posHandler.AddLine)
			c.Patch("/{cartId}/lines/{lineId}", posHandler.UpdateQty)
			c.Delete("/{cartId}/lines/{lineId}", posHandler.RemoveLine)
			c.Delete("/{cartId}/lines", posHandler.ClearCart)
			c.Get("/{cartId}/quote", posHandler.Quote)
		})
		v.With(idem.Middleware).Post("/checkout", posHandler.Checkout)

		v.Get("/sales", salesHandler.List)
		v.Get("/sales/summary", salesHandler.Summary)
		v.Get("/sales/{id}", salesHandler.Get)

		v.Route("/backups", func(b chi.Router) {
			b.Use(adminGate.Middleware)
			b.Post("/", backupHandler.Trigger)
			b.Get("/", backupHandler.List)
			b.Get("/{id}", backupHandler.Status)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func mustConnectDB(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "lats-pos-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustConnectRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func migrateSchema(databaseURL string, logger zerolog.Logger) {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logger.Fatal().Err(err).Msg("open migration source")
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise migrations")
	}
	if err := app.RunMigrations(m); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}
}

func rateLimiter(cfg *config.Config, rdb *redis.Client, logger zerolog.Logger) func(http.Handler) http.Handler {
	store, err := app.NewLimiterStore(rdb)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	instance := limiter.New(store, limiter.Rate{Period: cfg.RateLimitPeriod, Limit: cfg.RateLimitMax})
	return limiterhttp.NewMiddleware(instance).Handler
}

func asynqRedisOpt(redisURL string) asynq.RedisClientOpt {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{Addr: "localhost:6379"}
	}
	clientOpt, ok := opt.(asynq.RedisClientOpt)
	if !ok {
		return asynq.RedisClientOpt{Addr: "localhost:6379"}
	}
	return clientOpt
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func moneyFees(fees map[string]int64) map[string]pricing.Money {
	out := make(map[string]pricing.Money, len(fees))
	for method, fee := range fees {
		out[method] = pricing.Money(fee)
	}
	return out
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}
