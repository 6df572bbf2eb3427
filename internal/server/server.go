package server

import (
	"context"
	"shop-api/internal/config"
	"shop-api/internal/handler"
	"shop-api/internal/metrics"
	mw "shop-api/internal/middleware"
	"shop-api/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Services struct {
	Cart    service.CartService
	Order   service.OrderService
	Payment service.PaymentService
}

type Server struct {
	echo           *echo.Echo
	cfg            *config.Config
	metrics        *metrics.Metrics
	limiterStore   middleware.RateLimiterStore
	cartHandler    *handler.CartHandler
	orderHandler   *handler.OrderHandler
	paymentHandler *handler.PaymentHandler
	healthHandler  *handler.HealthHandler
}

// NewServer wires routes and middleware. limiterStore may be nil when rate limiting is disabled.
func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	services Services,
	m *metrics.Metrics,
	limiterStore middleware.RateLimiterStore,
	logger zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)

	e.Use(mw.RequestID())
	e.Use(mw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(mw.Metrics(m))
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	s := &Server{
		echo:           e,
		cfg:            cfg,
		metrics:        m,
		limiterStore:   limiterStore,
		cartHandler:    handler.NewCartHandler(services.Cart),
		orderHandler:   handler.NewOrderHandler(services.Order),
		paymentHandler: handler.NewPaymentHandler(services.Payment),
		healthHandler:  handler.NewHealthHandler(db),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	// -------- paystack webhooks --------
	// deliveries come from a handful of provider IPs, so they stay out of the per-IP limiter
	s.echo.POST("/api/payment/webhook", s.paymentHandler.PaystackWebhook)

	api := s.echo.Group("/api")
	if s.limiterStore != nil {
		api.Use(mw.RateLimit(s.limiterStore))
	}

	api.GET("/health", s.healthHandler.Health)

	auth := mw.Auth(&s.cfg.JWT)

	// -------- cart --------
	cart := api.Group("/cart", auth)
	cart.GET("", s.cartHandler.GetCart)
	cart.POST("/add", s.cartHandler.AddItem)
	cart.PUT("/update/:id", s.cartHandler.UpdateItem)
	cart.DELETE("/remove/:id", s.cartHandler.RemoveItem)
	cart.DELETE("/clear", s.cartHandler.ClearCart)

	// -------- orders --------
	orders := api.Group("/orders", auth)
	orders.GET("", s.orderHandler.ListOrders)
	orders.POST("", s.orderHandler.CreateOrder)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.POST("/:id/cancel", s.orderHandler.CancelOrder)

	admin := api.Group("/admin", auth, mw.RequireRole(mw.RoleAdmin))
	admin.PUT("/orders/:id/status", s.orderHandler.UpdateOrderStatus)

	// -------- paystack --------
	api.POST("/checkout", s.paymentHandler.InitializePayment)
	api.GET("/verify/:reference", s.paymentHandler.VerifyPayment)
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
