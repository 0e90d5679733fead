package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/config"
	"github.com/darsy-edu/darsy-api/internal/database"
	"github.com/darsy-edu/darsy-api/internal/handler"
	"github.com/darsy-edu/darsy-api/internal/middleware"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
	"github.com/darsy-edu/darsy-api/internal/router"
	"github.com/darsy-edu/darsy-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Supervisor{},
		&models.Course{},
		&models.Lesson{},
		&models.LessonView{},
		&models.Entitlement{},
		&models.PaymentRequest{},
		&models.AccessCode{},
		&models.Assessment{},
		&models.Question{},
		&models.Attempt{},
		&models.AttemptAnswer{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured; capability cache disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL, cfg.CodeSessionTTL)

	studentRepo := repository.NewStudentRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)
	contentRepo := repository.NewContentRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)
	paymentRepo := repository.NewPaymentRequestRepository(db)
	accessCodeRepo := repository.NewAccessCodeRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	permissionService := service.NewPermissionService(supervisorRepo, redisClient, cfg.CapabilityCacheTTL, logger)
	notificationService := service.NewNotificationService(notificationRepo, studentRepo, redisClient, natsConn, auditService, logger)
	entitlementService := service.NewEntitlementService(entitlementRepo, contentRepo, logger)
	paymentService := service.NewPaymentService(paymentRepo, contentRepo, entitlementService, permissionService, notificationService, auditService, cfg.PaymentRequestTTL, logger)
	accessCodeService := service.NewAccessCodeService(accessCodeRepo, studentRepo, permissionService, tokens, auditService, cfg.AccessCodeTTL, logger)
	assessmentService := service.NewAssessmentService(assessmentRepo, attemptRepo, entitlementService, permissionService, logger)
	contentService := service.NewContentService(contentRepo, entitlementService, logger)
	supervisorService := service.NewSupervisorService(supervisorRepo, permissionService, auditService, logger)
	authService := service.NewAuthService(studentRepo, supervisorRepo, tokens, cfg.OwnerPhone, cfg.OwnerPassword, logger)
	studentService := service.NewStudentService(studentRepo, permissionService, logger)

	authHandler := handler.NewAuthHandler(authService, accessCodeService, validate, logger)
	catalogHandler := handler.NewCatalogHandler(contentService, logger)
	subscriptionHandler := handler.NewSubscriptionHandler(paymentService, logger)
	assessmentHandler := handler.NewAssessmentHandler(assessmentService, validate, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	adminPaymentHandler := handler.NewAdminPaymentHandler(paymentService, logger)
	adminSupervisorHandler := handler.NewAdminSupervisorHandler(supervisorService, validate, logger)
	adminStudentHandler := handler.NewAdminStudentHandler(studentService, accessCodeService, logger)
	adminAuditHandler := handler.NewAdminAuditHandler(auditService, logger)
	adminNotificationHandler := handler.NewAdminNotificationHandler(notificationService, validate, logger)
	adminAttemptHandler := handler.NewAdminAttemptHandler(assessmentService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:              authHandler,
		CatalogHandler:           catalogHandler,
		SubscriptionHandler:      subscriptionHandler,
		AssessmentHandler:        assessmentHandler,
		NotificationHandler:      notificationHandler,
		AdminPaymentHandler:      adminPaymentHandler,
		AdminSupervisorHandler:   adminSupervisorHandler,
		AdminStudentHandler:      adminStudentHandler,
		AdminAuditHandler:        adminAuditHandler,
		AdminNotificationHandler: adminNotificationHandler,
		AdminAttemptHandler:      adminAttemptHandler,
		Permissions:              permissionService,
		JWTMiddleware:            middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
