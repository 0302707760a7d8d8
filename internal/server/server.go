package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"tableside/config"
	"tableside/internal/handler"
	"tableside/internal/middleware"
	"tableside/internal/redis"
	"tableside/internal/transport/httpdto"
	"tableside/internal/websocket"
	"tableside/pkg/logger"
	"tableside/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	checks     map[string]HealthCheck

	// baseCtx is the parent of every request context. Cancelling it ends open
	// streams so Shutdown does not wait on them.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	Auth          *handler.AuthHandler
	Orders        *handler.OrderHandler
	Notifications *handler.NotificationHandler
	Menu          *handler.MenuHandler
	Streams       *handler.StreamHandler
	Debug         *handler.DebugHandler
	WebSocket     *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	baseCtx, cancel := context.WithCancel(context.Background())
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           otelhttp.NewHandler(engine, "tableside"),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		},
		engine:     engine,
		config:     cfg,
		logger:     logger.OrNop(l),
		checks:     map[string]HealthCheck{},
		baseCtx:    baseCtx,
		cancelBase: cancel,
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

// SetupRoutes wires every endpoint. limiter may be nil when Redis is off.
func (s *Server) SetupRoutes(h *Handlers, tokens middleware.TokenResolver, limiter *redis.RateLimiter) {
	metrics.Register()

	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORS(s.config.PublicBaseURL))
	s.engine.Use(metrics.Instrument())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})
	s.engine.GET("/health", s.health)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	limit := func(build func(*redis.RateLimiter) gin.HandlerFunc) gin.HandlerFunc {
		if limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return build(limiter)
	}
	authed := middleware.AuthMiddleware(tokens)

	auth := s.engine.Group("/v1/auth")
	{
		auth.POST("/staff/login", limit(middleware.AuthRateLimitMiddleware), h.Auth.StaffLogin)
		auth.POST("/customer/login", limit(middleware.AuthRateLimitMiddleware), h.Auth.CustomerLogin)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", authed, h.Auth.Me)
	}

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/menu", h.Menu.List)
		v1.GET("/menu/:id", h.Menu.Get)
	}

	guest := s.engine.Group("/v1", authed)
	{
		guest.POST("/orders", middleware.RequireCustomer(), h.Orders.Checkout)
		guest.GET("/orders/:id", h.Orders.Get)
		guest.POST("/orders/:id/pay", h.Orders.Pay)
		guest.POST("/orders/:id/call-waiter", limit(middleware.CallWaiterRateLimitMiddleware), h.Notifications.CallWaiter)
		guest.GET("/orders/:id/stream", limit(middleware.StreamRateLimitMiddleware), h.Streams.Order)
		guest.GET("/menu/notifications/stream", limit(middleware.StreamRateLimitMiddleware), h.Streams.MenuNotifications)
		guest.GET("/ws", limit(middleware.StreamRateLimitMiddleware), h.WebSocket.Connect)
	}

	staff := s.engine.Group("/v1/staff", authed, middleware.RequireStaff())
	{
		staff.GET("/orders", h.Orders.List)
		staff.PATCH("/orders/:id/status", h.Orders.UpdateStatus)
		staff.PUT("/orders/:id/items", h.Orders.UpdateItems)
		staff.GET("/revenue", h.Orders.Revenue)
		staff.GET("/orders/stream", limit(middleware.StreamRateLimitMiddleware), h.Streams.DashboardOrders)
		staff.GET("/tables/stream", limit(middleware.StreamRateLimitMiddleware), h.Streams.Tables)
		staff.GET("/notifications/stream", limit(middleware.StreamRateLimitMiddleware), h.Streams.Notifications)
		staff.POST("/notifications", limit(middleware.NotificationRateLimitMiddleware), h.Notifications.Broadcast)
		staff.POST("/customers/:id/basket-suggestions", h.Notifications.SuggestBasket)
		staff.PUT("/menu/:id", h.Menu.Update)
		staff.POST("/menu/:id/image", h.Menu.PresignImage)
		staff.PUT("/menu/:id/image", h.Menu.SetImage)
		staff.PUT("/stock/:id", h.Menu.UpdateStock)
		staff.GET("/tables", h.Menu.Tables)
		staff.GET("/debug/topics", h.Debug.Topics)
	}
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := gin.H{}
	healthy := true
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, httpdto.Response[gin.H]{Success: false, Data: status, Code: "UNHEALTHY"})
		return
	}
	status["status"] = "healthy"
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(status))
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			s.logger.Errorf("Error in starting the server: %s", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	return s.Shutdown()
}

// Shutdown ends open streams and waits up to 5 seconds for in-flight requests.
func (s *Server) Shutdown() error {
	s.cancelBase()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		return err
	}
	s.logger.Infof("Server stopped gracefully")
	return nil
}

// Stopping is closed once Shutdown has begun.
func (s *Server) Stopping() <-chan struct{} {
	return s.baseCtx.Done()
}
