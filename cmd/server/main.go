package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/orbitlabs/commune/backend/internal/auth"
	"github.com/orbitlabs/commune/backend/internal/authz"
	"github.com/orbitlabs/commune/backend/internal/cache"
	"github.com/orbitlabs/commune/backend/internal/chat"
	"github.com/orbitlabs/commune/backend/internal/database"
	"github.com/orbitlabs/commune/backend/internal/handlers"
	"github.com/orbitlabs/commune/backend/internal/keylock"
	"github.com/orbitlabs/commune/backend/internal/logger"
	"github.com/orbitlabs/commune/backend/internal/membership"
	"github.com/orbitlabs/commune/backend/internal/metrics"
	"github.com/orbitlabs/commune/backend/internal/middleware"
	"github.com/orbitlabs/commune/backend/internal/notify"
	"github.com/orbitlabs/commune/backend/internal/store"
	"github.com/orbitlabs/commune/backend/internal/typing"
	"github.com/orbitlabs/commune/backend/internal/workflow"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		// .env is optional, system environment is enough
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		panic(err)
	}
	defer logger.Close()

	logger.Log.Info("=== Commune server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Core engine wiring
	st := store.New(database.DB)
	locks := keylock.New()
	dispatcher := notify.New(st, logger.Log)
	evaluator := authz.New(st)
	memberships := membership.New(st, evaluator, dispatcher, locks, logger.Log)
	workflows := workflow.New(st, dispatcher, locks, logger.Log)

	// Auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret, st)

	// Stream Chat client for DMs - optional in development
	var chatClient *chat.Client
	if cc, err := chat.NewClient(); err != nil {
		logger.Log.Warn("Stream Chat unavailable, messaging endpoints disabled", zap.Error(err))
	} else {
		chatClient = cc
	}

	// Typing indicators: per-instance by default, Redis-backed when
	// REDIS_HOST is set so multiple instances agree
	typingStore := typing.New(typing.DefaultTTL, logger.Log)
	if host := os.Getenv("REDIS_HOST"); host != "" {
		rc, err := cache.NewRedisClient(host, os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			logger.Log.Warn("Redis unavailable, typing indicators stay process-local", zap.Error(err))
		} else {
			typingStore.SetSharedCache(rc)
			defer rc.Close()
		}
	}
	typingStore.Start()
	defer typingStore.Stop()

	metrics.Initialize()

	// Handlers
	h := handlers.NewHandlers(memberships, workflows, dispatcher, evaluator)
	h.SetTypingStore(typingStore)
	if chatClient != nil {
		h.SetChatClient(chatClient)
	}
	authHandlers := handlers.NewAuthHandlers(authService, chatClient)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.PrometheusMetrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "commune-backend",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api/v1")
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandlers.Register)
			authGroup.POST("/login", authHandlers.Login)

			// User info (protected)
			authGroup.GET("/me", middleware.Auth(authService), authHandlers.Me)

			// getstream.io Chat token generation (protected)
			authGroup.GET("/chat-token", middleware.Auth(authService), authHandlers.GetChatToken)
		}

		// Collective routes
		collectives := api.Group("/collectives")
		{
			collectives.Use(middleware.Auth(authService))
			collectives.POST("", h.CreateCollective)
			collectives.GET("", h.GetMyCollectives)
			collectives.GET("/:id", h.GetCollective)
			collectives.POST("/:id/join", h.JoinCollective)
			collectives.POST("/:id/leave", h.LeaveCollective)
			collectives.GET("/:id/members", h.GetCollectiveMembers)
			collectives.POST("/:id/deactivate", h.DeactivateCollective)
			collectives.POST("/:id/members/:userID/promote", h.PromoteMember)
		}

		// Workflow request routes (location sharing + invites)
		requests := api.Group("/requests")
		{
			requests.Use(middleware.Auth(authService))
			requests.POST("", h.CreateWorkflowRequest)
			requests.GET("", h.GetIncomingRequests)
			requests.GET("/outgoing", h.GetOutgoingRequests)
			requests.POST("/:id/accept", h.AcceptWorkflowRequest)
			requests.POST("/:id/deny", h.DenyWorkflowRequest)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(middleware.Auth(authService))
			notifications.GET("", h.GetNotifications)
			notifications.GET("/counts", h.GetNotificationCounts)
			notifications.POST("/read", h.MarkAllNotificationsRead)
			notifications.POST("/:id/read", h.MarkNotificationRead)
		}

		// Typing indicator routes
		typingGroup := api.Group("/typing")
		{
			typingGroup.Use(middleware.Auth(authService))
			typingGroup.POST("", h.SetTyping)
			typingGroup.GET("/:channelID", h.GetTyping)
		}
	}

	// Server configuration
	port := os.Getenv("PORT")
	if port == "" {
		port = "8787"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("Commune backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Forced shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}
