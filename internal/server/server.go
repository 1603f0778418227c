package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/config"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	staffCookieName = "staff_token"
	staffLoginPath  = "/staff/login/"
)

type Server struct {
	*http.Server
	config      *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) *Server {
	router := NewRouter(cfg, logger, db, redisClient)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "storefront"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:      cfg,
		logger:      logger,
		db:          db,
		redisClient: redisClient,
	}

	return server
}

// NewRouter wires repositories, services and handlers onto a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, db *sql.DB, redisClient *redis.Client) chi.Router {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack(logger)...)
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessions := session.NewRedisStore(redisClient, sessionTTL)
	tokenExpiry := time.Duration(cfg.JWT.AccessExpiry) * time.Minute

	// Initialize services
	calculator := service.NewCalculator(cfg.Shop.TaxRate)
	cartService := service.NewCartService(productRepo, sessions, calculator)
	checkoutService := service.NewCheckoutService(orderRepo, cartService, sessions, calculator, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo)
	orderService := service.NewOrderService(orderRepo)
	dashboardService := service.NewDashboardService(productRepo, orderRepo, cfg.Shop.LowStockThreshold)
	staffService := service.NewStaffService(staffRepo, cfg.JWT.Secret, tokenExpiry)

	// Initialize handlers
	storefrontHandler := transport.NewStorefrontHandler(catalogService, cartService, logger)
	cartHandler := transport.NewCartHandler(cartService, logger)
	checkoutHandler := transport.NewCheckoutHandler(checkoutService, cartService, logger)
	authHandler := transport.NewAuthHandler(staffService, staffCookieName, tokenExpiry, !cfg.IsDevelopment(), logger)
	staffHandler := transport.NewStaffHandler(catalogService, orderService, dashboardService, logger)

	rateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		KeyPrefix:         "rate_limit",
	}, logger)

	staffAuth := custommiddleware.StaffAuthMiddleware(custommiddleware.StaffAuthConfig{
		JWTSecret:  cfg.JWT.Secret,
		CookieName: staffCookieName,
		LoginPath:  staffLoginPath,
		Lookup:     staffService.IsActiveStaff,
	}, logger)
	staffOnly := func(next http.Handler) http.Handler {
		return staffAuth(custommiddleware.RequireRole([]string{service.StaffRole}, logger)(next))
	}

	// Storefront routes carry the visitor session cookie
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.SessionMiddleware(cfg.Session.CookieName, sessionTTL, !cfg.IsDevelopment(), logger))
		storefrontHandler.RegisterRoutes(r)
		cartHandler.RegisterRoutes(r, rateLimit)
		checkoutHandler.RegisterRoutes(r, rateLimit)
	})

	router.Route("/staff", func(r chi.Router) {
		authHandler.RegisterRoutes(r, rateLimit)
		staffHandler.RegisterRoutes(r, staffOnly)
	})

	return router
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
