package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rusithink-backend/internal/config"
	"rusithink-backend/internal/database"
	adminHandler "rusithink-backend/internal/handler/http/admin"
	analyticsHandler "rusithink-backend/internal/handler/http/analytics"
	authHandler "rusithink-backend/internal/handler/http/auth"
	chatHandler "rusithink-backend/internal/handler/http/chat"
	notificationHandler "rusithink-backend/internal/handler/http/notification"
	taskHandler "rusithink-backend/internal/handler/http/task"
	wsHandler "rusithink-backend/internal/handler/ws"
	"rusithink-backend/internal/middleware"
	"rusithink-backend/internal/repository/cassandra"
	"rusithink-backend/internal/repository/postgres"
	analyticsService "rusithink-backend/internal/service/analytics"
	authService "rusithink-backend/internal/service/auth"
	chatService "rusithink-backend/internal/service/chat"
	storageService "rusithink-backend/internal/service/storage"
	taskService "rusithink-backend/internal/service/task"
	userService "rusithink-backend/internal/service/user"
	"rusithink-backend/pkg/constants"
	"rusithink-backend/pkg/jwt"
	"rusithink-backend/pkg/logger"
	"rusithink-backend/pkg/metrics"
)

func main() {
	// 1. Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// 2. Connect to Postgres
	postgresDB, err := database.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer postgresDB.Close()

	if err := postgresDB.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to apply Postgres schema", zap.Error(err))
	}

	logger.Info("Connected to Postgres")

	// 3. Connect to Cassandra
	cassandraDB, err := database.NewCassandraDB(&cfg.Cassandra)
	if err != nil {
		logger.Fatal("Failed to connect to Cassandra", zap.Error(err))
	}
	defer cassandraDB.Close()

	if err := cassandraDB.EnsureSchema(); err != nil {
		logger.Fatal("Failed to apply Cassandra schema", zap.Error(err))
	}

	logger.Info("Connected to Cassandra")

	// 4. Connect to Redis
	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisDB.Close()

	logger.Info("Connected to Redis")

	// 5. Connect to MinIO
	storageSvc, err := storageService.NewService(cfg.MinIO)
	if err != nil {
		logger.Fatal("Failed to connect to MinIO", zap.Error(err))
	}

	logger.Info("Connected to MinIO")

	// 6. Initialize repositories
	userRepo := postgres.NewUserRepository(postgresDB.Pool)
	taskRepo := postgres.NewTaskRepository(postgresDB.Pool)
	analyticsRepo := postgres.NewAnalyticsRepository(postgresDB.Pool)
	messageRepo := cassandra.NewMessageRepository(cassandraDB.Session)

	// 7. Initialize services
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	redisPublisher := &chatService.RedisAdapter{Client: redisDB.Client}

	authSvc := authService.NewService(userRepo, jwtManager, cfg.Admin)
	chatSvc := chatService.NewService(messageRepo, userRepo, redisPublisher)
	taskSvc := taskService.NewService(taskRepo, userRepo)
	analyticsSvc := analyticsService.NewService(taskRepo, userRepo, analyticsRepo)
	userSvc := userService.NewService(userRepo, messageRepo, analyticsRepo)

	if err := authSvc.EnsureAdmin(ctx); err != nil {
		logger.Fatal("Failed to seed admin account", zap.Error(err))
	}

	// 8. Initialize metrics
	appMetrics := metrics.NewMetrics(cfg.Server.ServiceName)
	prometheusMiddleware := middleware.NewPrometheusMiddleware(appMetrics)

	// 9. Initialize handlers
	authHdlr := authHandler.NewHandler(authSvc)
	chatHdlr := chatHandler.NewHandler(chatSvc, storageSvc)
	taskHdlr := taskHandler.NewHandler(taskSvc)
	analyticsHdlr := analyticsHandler.NewHandler(analyticsSvc)
	notificationHdlr := notificationHandler.NewHandler(chatSvc)
	adminHdlr := adminHandler.NewHandler(chatSvc, userSvc)

	// 10. Initialize WebSocket hub
	chatHub := wsHandler.NewChatHub(redisDB.Client, appMetrics)

	// 11. Setup router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(middleware.HealthCheck(cfg.Server.ServiceName))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(prometheusMiddleware.Handler())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHdlr.Register)
		authRoutes.POST("/login", authHdlr.Login)
		authRoutes.POST("/admin-login", authHdlr.AdminLogin)
		authRoutes.GET("/me", middleware.AuthMiddleware(jwtManager), authHdlr.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(jwtManager))
	{
		chatRoutes := authed.Group("/chat")
		{
			chatRoutes.GET("/admin-info", chatHdlr.AdminInfo)
			chatRoutes.GET("/messages", chatHdlr.GetMessages)
			chatRoutes.POST("/messages", chatHdlr.SendMessage)
			chatRoutes.POST("/messages/mark-read", chatHdlr.MarkRead)
			chatRoutes.POST("/upload", chatHdlr.Upload)
			chatRoutes.GET("/files/*object", chatHdlr.DownloadFile)
			chatRoutes.GET("/ws", chatHub.ServeWS)
		}

		authed.GET("/notifications/unread-count", notificationHdlr.UnreadCount)

		taskRoutes := authed.Group("/tasks")
		{
			taskRoutes.POST("", taskHdlr.CreateTask)
			taskRoutes.GET("", taskHdlr.ListTasks)
			taskRoutes.GET("/:task_id", taskHdlr.GetTask)
			taskRoutes.PUT("/:task_id", taskHdlr.UpdateTask)
			taskRoutes.PATCH("/:task_id/status", taskHdlr.UpdateStatus)
			taskRoutes.DELETE("/:task_id", taskHdlr.DeleteTask)
			taskRoutes.GET("/stats/overview", taskHdlr.Stats)
		}

		analyticsRoutes := authed.Group("/analytics")
		{
			analyticsRoutes.GET("/client", analyticsHdlr.GetClientAnalytics)
			analyticsRoutes.GET("/admin", middleware.AdminOnly(), analyticsHdlr.GetAdminAnalytics)
			analyticsRoutes.POST("/calculate", middleware.AdminOnly(), analyticsHdlr.Recalculate)
		}

		adminRoutes := authed.Group("/admin")
		adminRoutes.Use(middleware.AdminOnly())
		{
			adminRoutes.GET("/chat/conversations", adminHdlr.ListConversations)
			adminRoutes.DELETE("/chat/message/:message_id", adminHdlr.DeleteMessage)
			adminRoutes.DELETE("/chat/conversation/:client_id", adminHdlr.DeleteConversation)
			adminRoutes.POST("/chat/bulk-delete", adminHdlr.BulkDeleteMessages)
			adminRoutes.GET("/chat/export/:client_id", adminHdlr.ExportConversation)

			adminRoutes.GET("/users", adminHdlr.ListUsers)
			adminRoutes.GET("/users/:user_id", adminHdlr.GetUser)
			adminRoutes.DELETE("/users/:user_id", adminHdlr.DeleteUser)
			adminRoutes.POST("/users/bulk-delete", adminHdlr.BulkDeleteUsers)
			adminRoutes.GET("/users/export/csv", adminHdlr.ExportUsersCSV)
		}
	}

	// 12. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", zap.String("addr", addr), zap.String("environment", cfg.Server.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 13. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
