package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tahaet/book-ecommerce/internal/config"
	"github.com/tahaet/book-ecommerce/internal/database"
	"github.com/tahaet/book-ecommerce/internal/mail"
	custommiddleware "github.com/tahaet/book-ecommerce/internal/middleware"
	"github.com/tahaet/book-ecommerce/internal/payment"
	"github.com/tahaet/book-ecommerce/internal/repository"
	"github.com/tahaet/book-ecommerce/internal/service"
	"github.com/tahaet/book-ecommerce/internal/token"
	"github.com/tahaet/book-ecommerce/internal/transport"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers into the chi
// router and mounts the whole API under /api/v1.
func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(nil, !cfg.Server.IsProduction()))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger, cfg.Server.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, database.Health(db))
	})

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	txManager := repository.NewTxManager(db)

	// Services
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryMinutes)*time.Minute)
	mailer := mail.NewSMTPMailer(cfg.Email)
	provider := payment.NewStripeProvider(cfg.Stripe.SecretKey)

	authService := service.NewAuthService(userRepo, jwtManager, mailer, cfg.Server.BaseURL)
	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(categoryRepo, productRepo)
	cartService := service.NewCartService(cartRepo, productRepo, txManager)
	orderService := service.NewOrderService(orderRepo, cartRepo, txManager, provider,
		cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)

	// Handlers
	cookies := transport.CookieSettings{
		ExpiryDays:   cfg.JWT.CookieExpiryDays,
		IsProduction: cfg.Server.IsProduction(),
	}
	userHandler := transport.NewUserHandler(authService, userService, cookies, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)

	protect := custommiddleware.Protect(authService, logger)
	rateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:auth",
	}, logger)

	router.Route("/api/v1", func(r chi.Router) {
		userHandler.RegisterRoutes(r, protect, rateLimit)
		catalogHandler.RegisterRoutes(r, protect)
		cartHandler.RegisterRoutes(r, protect)
		orderHandler.RegisterRoutes(r, protect)
	})

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

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
