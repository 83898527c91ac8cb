package server

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Server is the catalog HTTP server and the resources it owns
type Server struct {
	*http.Server
	logger    *zap.Logger
	db        database.Service
	redis     *redis.Client
	publisher events.Publisher
}

// NewServer wires repositories, services and handlers onto a chi router
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) *Server {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	publisher := events.New(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB(), "catalog"),
	)

	router := NewRouter(Deps{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Redis:     redisClient,
		Publisher: publisher,
		Registry:  registry,
	})

	return &Server{
		Server: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:           router,
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		logger:    logger,
		db:        db,
		redis:     redisClient,
		publisher: publisher,
	}
}

// Deps are the collaborators NewRouter wires together
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        database.Service
	Redis     redis.Cmdable
	Publisher events.Publisher
	Registry  *prometheus.Registry
}

// NewRouter builds the full route tree
func NewRouter(d Deps) http.Handler {
	cfg, logger := d.Config, d.Logger
	sqlDB := d.DB.DB()

	productRepo := repository.NewProductRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	brandRepo := repository.NewBrandRepository(sqlDB)
	uploadRepo := repository.NewUploadRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(sqlDB)

	userService := service.NewUserService(userRepo, refreshTokenRepo, service.TokenSettings{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	}, logger)
	productService := service.NewProductService(
		productRepo, categoryRepo, brandRepo, uploadRepo,
		d.Publisher, logger, cfg.Catalog.MaxPageLimit,
	)

	authn := custommiddleware.AuthMiddleware(userService, logger)
	limiter := custommiddleware.RateLimitMiddleware(d.Redis, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         "ratelimit:admin",
	}, logger)
	admin := chain(authn, custommiddleware.RequireAdmin(logger), limiter)

	metrics := custommiddleware.NewMetrics(d.Registry, "storefront-catalog")

	router := chi.NewRouter()
	router.Use(custommiddleware.BaseStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(metrics.Middleware)

	router.Get("/health", healthHandler(d.DB))
	router.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))

	transport.NewProductHandler(productService, logger).RegisterRoutes(router, admin)
	transport.NewCategoryHandler(service.NewCategoryService(categoryRepo, logger), logger).RegisterRoutes(router, admin)
	transport.NewBrandHandler(service.NewBrandService(brandRepo, logger), logger).RegisterRoutes(router, admin)
	transport.NewUploadHandler(service.NewUploadService(uploadRepo), logger).RegisterRoutes(router, admin)
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, authn, admin)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return router
}

// chain applies middlewares so the first one runs first
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := db.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
			"status":   health["status"],
			"database": health,
		})
	}
}

// Close releases the publisher, Redis and the database pool
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.publisher.Close(); err != nil {
		s.logger.Error("Failed to close event publisher", zap.Error(err))
	}
	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}
	return nil
}
