package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ecommerce-service/internal/models"
	"ecommerce-service/internal/service"
	"ecommerce-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services groups the business logic the handlers call into
type Services struct {
	Users    *service.UserService
	Products *service.ProductService
	Orders   *service.OrderService
	Payments *service.PaymentService
}

// CookieOptions controls the session cookie
type CookieOptions struct {
	MaxAge int
	Secure bool
}

// ReadinessCheck is a named dependency probed by /ready
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler contains HTTP handlers
type Handler struct {
	users    *service.UserService
	products *service.ProductService
	orders   *service.OrderService
	payments *service.PaymentService
	cookie   CookieOptions
	checks   []ReadinessCheck
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, cookie CookieOptions, checks ...ReadinessCheck) *Handler {
	return &Handler{
		users:    svc.Users,
		products: svc.Products,
		orders:   svc.Orders,
		payments: svc.Payments,
		cookie:   cookie,
		checks:   checks,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))
	router.Use(ErrorResponder(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := h.Authenticate()
	admin := AuthorizeRoles(models.NewRoleSet(models.RoleAdmin))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/register", h.register)
		v1.POST("/login", h.login)
		v1.GET("/logout", authed, h.logout)
		v1.POST("/password/forgot", h.forgotPassword)
		v1.PUT("/password/reset/:token", h.resetPassword)
		v1.GET("/me", authed, h.getMe)
		v1.PUT("/password/update", authed, h.updatePassword)
		v1.PUT("/me/update", authed, h.updateProfile)

		v1.GET("/products", h.listProducts)
		v1.GET("/product/:id", h.getProduct)
		v1.PUT("/review", authed, h.upsertReview)
		v1.GET("/reviews", h.listReviews)
		v1.DELETE("/reviews", authed, h.deleteReview)

		v1.POST("/order/new", authed, h.createOrder)
		v1.GET("/order/:id", authed, h.getOrder)
		v1.GET("/orders/me", authed, h.myOrders)

		v1.POST("/payment/process", authed, h.processPayment)
		v1.GET("/stripeapikey", authed, h.stripeAPIKey)
	}

	adm := v1.Group("/admin", authed, admin)
	{
		adm.GET("/users", h.listUsers)
		adm.GET("/user/:id", h.getUser)
		adm.PUT("/user/:id", h.updateUser)
		adm.DELETE("/user/:id", h.deleteUser)

		adm.GET("/products", h.listAllProducts)
		adm.POST("/product/new", h.createProduct)
		adm.PUT("/product/:id", h.updateProduct)
		adm.DELETE("/product/:id", h.deleteProduct)

		adm.GET("/orders", h.listOrders)
		adm.PUT("/order/:id", h.updateOrderStatus)
		adm.DELETE("/order/:id", h.deleteOrder)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency the service cannot work without
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", check.Name), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not ready",
				"dependency": check.Name,
				"time":       time.Now().Unix(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger writes one structured line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
