package server

import (
	"fmt"
	"net/http"
	"time"

	"inventory-api/internal/config"
	"inventory-api/internal/database"
	custommiddleware "inventory-api/internal/middleware"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	dbService   database.Service
	redisClient *redis.Client
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Database map[string]string `json:"database"`
}

// NewServer wires the product API. redisClient may be nil, in which case bulk
// operations are not rate limited.
func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service, redisClient *redis.Client) *Server {
	s := &Server{
		config:      cfg,
		logger:      logger,
		dbService:   dbService,
		redisClient: redisClient,
	}

	s.Server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      s.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.CORSMiddleware(s.config.Server.AllowedOrigins, s.config.Server.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(s.logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(s.logger))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/health", s.healthHandler)

	// Initialize repositories
	productRepo := repository.NewProductRepository(s.dbService.DB())

	// Initialize services
	productService := service.NewProductService(productRepo, s.logger)

	// Initialize handlers
	productHandler := transport.NewProductHandler(productService, s.logger)

	if s.config.JWT.Secret == "" {
		s.logger.Warn("JWT_SECRET is not set, product mutations are open")
	}
	writeGate := custommiddleware.WriteGate(s.config.JWT.Secret, s.logger)

	// Register routes
	productHandler.RegisterRoutes(router, writeGate, s.bulkLimit())

	return router
}

func (s *Server) bulkLimit() func(http.Handler) http.Handler {
	if !s.config.RateLimit.Enabled || s.redisClient == nil {
		return func(next http.Handler) http.Handler { return next }
	}

	return custommiddleware.RateLimitMiddleware(s.redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: s.config.RateLimit.Requests,
		Window:            s.config.RateLimit.Window,
		KeyPrefix:         "ratelimit:products:bulk",
	}, s.logger)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := s.dbService.Health()

	if stats["status"] != "up" {
		s.logger.Warn("Health check failed", zap.String("error", stats["error"]))
		custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: stats,
		})
		return
	}

	custommiddleware.RespondWithJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Database: stats,
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.dbService != nil {
		if err := s.dbService.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	_ = s.logger.Sync()
	return nil
}
