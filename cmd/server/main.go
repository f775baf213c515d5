// Package main runs the fest registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eventhub-fest/backend/config"
	"github.com/eventhub-fest/backend/internal/analytics"
	"github.com/eventhub-fest/backend/internal/auth"
	"github.com/eventhub-fest/backend/internal/catalog"
	"github.com/eventhub-fest/backend/internal/emaillogs"
	"github.com/eventhub-fest/backend/internal/middleware"
	"github.com/eventhub-fest/backend/internal/models"
	"github.com/eventhub-fest/backend/internal/notifications"
	"github.com/eventhub-fest/backend/internal/receipts"
	"github.com/eventhub-fest/backend/internal/registrations"
	"github.com/eventhub-fest/backend/internal/worker"
	"github.com/eventhub-fest/backend/pkg/database"
	"github.com/eventhub-fest/backend/pkg/mailer"
	"github.com/eventhub-fest/backend/pkg/queue"
	"github.com/eventhub-fest/backend/pkg/redis"
	"github.com/eventhub-fest/backend/pkg/response"
	"github.com/eventhub-fest/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Interface-typed so an unconfigured collaborator stays an untyped nil.
	var (
		sender   mailer.Sender
		jobs     notifications.JobQueue
		jobQueue *queue.Queue
	)
	if cfg.Email.SMTPHost != "" {
		smtpSender, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			Username:    cfg.Email.SMTPUser,
			Password:    cfg.Email.SMTPPass,
			FromAddress: cfg.Email.FromAddress,
			FromName:    cfg.Email.FromName,
		}, logger)
		if err != nil {
			logger.Fatal("smtp", zap.Error(err))
		}
		sender = smtpSender
	} else {
		logger.Warn("SMTP_HOST not set: approval emails cannot be delivered")
	}

	if cfg.Email.Delivery == config.DeliveryQueue {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		jobQueue = queue.NewQueue(rdb.Client, logger)
		jobs = jobQueue
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ReceiptsBucket:       cfg.AWS.ReceiptsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
	}

	// Repositories
	registrationRepo := registrations.NewRepository(pool)
	emailLogRepo := emaillogs.NewRepository(pool)
	userRepo := auth.NewRepository(pool)

	if err := auth.EnsureAdmin(ctx, userRepo, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name, logger); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	dispatcher, err := notifications.NewDispatcher(emailLogRepo, jobs, sender, cfg.Email.Delivery, cfg.Email.FestName, logger)
	if err != nil {
		logger.Fatal("email dispatcher", zap.Error(err))
	}

	// Services
	cat := catalog.Default()
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	tokens := registrations.NewTokenGenerator(registrationRepo, registrations.TokenOptions{
		OrgCode:        cfg.Token.OrgCode,
		Year:           cfg.Token.Year,
		MaxAttempts:    cfg.Token.MaxAttempts,
		RetryDelay:     cfg.Token.RetryDelay(),
		VerifyFallback: cfg.Token.VerifyFallback,
	}, logger)
	registrationService := registrations.NewService(registrationRepo, cat, tokens, dispatcher, cfg.Email.Timeout(), logger)

	// Handlers
	catalogHandler := catalog.NewHandler(cat)
	registrationHandler := registrations.NewHandler(registrationService, logger)
	authHandler := auth.NewHandler(userRepo, jwtService, logger)
	emailLogsHandler := emaillogs.NewHandler(emailLogRepo, registrationService, logger)
	analyticsHandler := analytics.NewHandler(registrationRepo, cat, logger)
	var receiptHandler *receipts.Handler
	if s3Client != nil {
		receiptHandler = receipts.NewHandler(s3Client, registrationService, logger)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: catalog, receipt upload, intake and status lookup
	router.GET("/events", catalogHandler.List)
	router.GET("/events/:id", catalogHandler.Get)
	router.POST("/registrations", registrationHandler.Register)
	router.GET("/registrations/:token/status", registrationHandler.Status)
	if receiptHandler != nil {
		router.POST("/receipts", receiptHandler.Upload)
		router.POST("/receipts/presign", receiptHandler.Presign)
	} else {
		logger.Warn("AWS_REGION not set: receipt upload routes disabled")
	}

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Admin dashboard (JWT required). Volunteers read; admins mutate.
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleVolunteer)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService))
	{
		admin.GET("/stats", staff, analyticsHandler.Summary)

		admin.GET("/registrations", staff, registrationHandler.List)
		admin.GET("/registrations/:id", staff, registrationHandler.Get)
		admin.POST("/registrations/:id/approve", adminOnly, registrationHandler.Approve)
		admin.DELETE("/registrations/:id", adminOnly, registrationHandler.Delete)

		admin.GET("/registrations/:id/emails", staff, emailLogsHandler.ListByRegistration)
		admin.POST("/registrations/:id/emails/resend", adminOnly, emailLogsHandler.Resend)
		if receiptHandler != nil {
			admin.GET("/registrations/:id/receipt", staff, receiptHandler.Download)
		}

		admin.GET("/users", adminOnly, authHandler.ListUsers)
		admin.POST("/users", adminOnly, authHandler.CreateUser)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (approval email delivery), only when asked to share the process
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cfg.Email.InlineWorker && jobQueue != nil && sender != nil {
		processor := worker.NewEmailProcessor(jobQueue, emailLogRepo, sender, cfg.Email.Timeout(), logger)
		go processor.Run(workerCtx)
		logger.Info("inline email worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("email_delivery", cfg.Email.Delivery))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
