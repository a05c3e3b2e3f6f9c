package server

import (
	"fmt"
	"net/http"
	"time"

	"utkal-mart/internal/config"
	"utkal-mart/internal/database"
	custommiddleware "utkal-mart/internal/middleware"
	"utkal-mart/internal/repository"
	"utkal-mart/internal/service"
	"utkal-mart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers onto a chi router.
// redisClient may be nil, which disables rate limiting.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", healthHandler(db))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB())
	cartRepo := repository.NewCartRepository(db.DB())

	// Initialize services
	userService := service.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	cartService := service.NewCartService(cartRepo, service.CartOptions{
		KeepPriceOnMutation: !cfg.Cart.ResnapshotOnMutation,
	})

	// Initialize handlers
	userHandler := transport.NewUserHandler(userService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)

	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, userService, logger)

	userHandler.RegisterRoutes(router, authMiddleware, rateLimit(redisClient, cfg.RateLimit, "rl:auth", logger))
	cartHandler.RegisterRoutes(router,
		authMiddleware,
		custommiddleware.RequireBuyer(logger),
		rateLimit(redisClient, cfg.RateLimit, "rl:cart", logger),
	)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}
}

func rateLimit(redisClient *redis.Client, cfg config.RateLimitConfig, prefix string, logger *zap.Logger) func(http.Handler) http.Handler {
	if redisClient == nil || cfg.Requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.Requests,
		Window:            cfg.Window,
		KeyPrefix:         prefix,
	}, logger)
}

func healthHandler(db database.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbHealth := db.Health(r.Context())
		if dbHealth["status"] != "up" {
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status":   "unavailable",
				"database": dbHealth,
			})
			return
		}

		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"database": dbHealth,
		})
	}
}

// Close releases the Redis and database connections
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
