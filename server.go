package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/controllers"
	"bitbucket.org/mmdatafocus/garage_backend/middlewares"
	"bitbucket.org/mmdatafocus/garage_backend/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("garage-backend")

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware counts requests per client IP in a fixed window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "ratelimit:" + c.ClientIP()

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		// Redis being down must not take the API with it.
		c.Next()
		return
	}
	if count == 1 {
		rl.client.Expire(c.Request.Context(), key, rl.window)
	}
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}
	c.Next()
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/auth/login", controllers.Login)

	authed := api.Group("", middlewares.AuthMiddleware())
	authed.GET("/auth/me", controllers.Me)
	authed.POST("/auth/change-password", controllers.ChangePassword)

	// invoices
	authed.POST("/invoices", controllers.CreateInvoice)
	authed.GET("/invoices", controllers.ListInvoices)
	authed.GET("/invoices/:id", controllers.GetInvoice)
	authed.PUT("/invoices/:id", controllers.UpdateInvoice)
	authed.POST("/invoices/:id/items", controllers.AddInvoiceItem)
	authed.PATCH("/invoices/:id/items/:itemId", controllers.UpdateInvoiceItem)
	authed.DELETE("/invoices/:id/items/:itemId", controllers.RemoveInvoiceItem)
	authed.POST("/invoices/:id/recalculate", controllers.RecalculateInvoice)
	authed.GET("/invoices/:id/pdf", controllers.ExportInvoicePdf)

	billing := authed.Group("", middlewares.AuthMiddleware(models.UserRoleManager, models.UserRoleCashier))
	billing.POST("/invoices/:id/mark-paid", controllers.MarkInvoicePaid)
	billing.POST("/invoices/:id/cancel", controllers.CancelInvoice)

	// bookings
	authed.POST("/bookings", controllers.CreateBooking)
	authed.GET("/bookings", controllers.ListBookings)
	authed.GET("/bookings/:id", controllers.GetBooking)
	authed.PUT("/bookings/:id", controllers.UpdateBooking)
	authed.DELETE("/bookings/:id", controllers.DeleteBooking)
	authed.POST("/bookings/:id/approve", controllers.ApproveBooking)
	authed.POST("/bookings/:id/reject", controllers.RejectBooking)
	authed.POST("/bookings/:id/reset", controllers.ResetBooking)
	authed.POST("/bookings/:id/invoice", controllers.ConvertBookingToInvoice)

	// catalog reads for everyone; writes for managers
	authed.GET("/products", controllers.ListProducts)
	authed.GET("/products/:id", controllers.GetProduct)
	authed.GET("/product-categories", controllers.ListProductCategories)
	authed.GET("/services", controllers.ListServices)
	authed.GET("/services/:id", controllers.GetService)
	authed.GET("/service-packages", controllers.ListServicePackages)
	authed.GET("/service-packages/:id", controllers.GetServicePackage)

	catalog := authed.Group("", middlewares.AuthMiddleware(models.UserRoleManager))
	catalog.POST("/products", controllers.CreateProduct)
	catalog.PUT("/products/:id", controllers.UpdateProduct)
	catalog.POST("/products/:id/adjust-stock", controllers.AdjustProductStock)
	catalog.DELETE("/products/:id", controllers.DeleteProduct)
	catalog.POST("/product-categories", controllers.CreateProductCategory)
	catalog.PUT("/product-categories/:id", controllers.UpdateProductCategory)
	catalog.DELETE("/product-categories/:id", controllers.DeleteProductCategory)
	catalog.POST("/services", controllers.CreateService)
	catalog.PUT("/services/:id", controllers.UpdateService)
	catalog.DELETE("/services/:id", controllers.DeleteService)
	catalog.POST("/service-packages", controllers.CreateServicePackage)
	catalog.PUT("/service-packages/:id", controllers.UpdateServicePackage)
	catalog.DELETE("/service-packages/:id", controllers.DeleteServicePackage)

	// notifications
	authed.GET("/notifications", controllers.ListNotifications)
	authed.POST("/notifications/:id/read", controllers.MarkNotificationRead)
	authed.POST("/notifications/read-all", controllers.MarkAllNotificationsRead)
	authed.DELETE("/notifications/:id", controllers.DeleteNotification)
	authed.POST("/notifications", middlewares.AuthMiddleware(models.UserRoleManager), controllers.SendNotification)

	// reports
	reportsGroup := authed.Group("", middlewares.AuthMiddleware(models.UserRoleManager, models.UserRoleCashier))
	reportsGroup.GET("/reports/invoices", controllers.InvoiceListReport)
	reportsGroup.GET("/reports/invoices/export", controllers.ExportInvoicesExcel)

	// admin only
	admin := authed.Group("", middlewares.AuthMiddleware())
	admin.GET("/staff", controllers.ListStaff)
	admin.GET("/staff/:id", controllers.GetStaff)
	adminWrite := admin.Group("", middlewares.AuthMiddleware(models.UserRoleAdmin))
	adminWrite.POST("/staff", controllers.CreateStaff)
	adminWrite.PUT("/staff/:id", controllers.UpdateStaff)
	adminWrite.POST("/staff/:id/toggle-active", controllers.ToggleStaffActive)

	authed.GET("/settings", controllers.GetSetting)
	authed.PUT("/settings", middlewares.AuthMiddleware(models.UserRoleAdmin), controllers.UpdateSetting)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the startup probe passes. Until DB/Redis
	// are ready, app endpoints return 503.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDRESS")})
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations as
	// a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		_, span := tracer.Start(context.Background(), "migrate")
		models.MigrateTable()
		span.End()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
