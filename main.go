// Package main provides the main entry point for the BillNet admin authentication service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billnet/admin-api/app/handlers"
	"github.com/billnet/admin-api/app/middleware"
	"github.com/billnet/admin-api/app/router"
	"github.com/billnet/admin-api/app/services"
	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/billnet/admin-api/config"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"github.com/billnet/admin-api/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting BillNet admin API...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger through lumberjack when file output
// is configured.
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" && cfg.Output != "both" {
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	if cfg.Output == "both" {
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		log.SetOutput(rotator)
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	// TranslateError maps driver duplicate-key errors to gorm.ErrDuplicatedKey
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// startSessionCleanup periodically deletes session rows past their expiry
func startSessionCleanup(parent context.Context, sessionRepo repository.AdminSessionRepository, interval time.Duration) func() {
	cleanupCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
				if err := sessionRepo.CleanupExpiredSessions(ctx); err != nil {
					log.Printf("Session cleanup failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, 30*time.Second)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Seed static role reference data
	if err := repository.SeedDefaultRoles(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to seed roles: %w", err)
	}

	// Initialize repositories
	adminRepo := repository.NewAdminAccountRepository(db)
	sessionRepo := repository.NewAdminSessionRepository(db)
	roleRepo := repository.NewAdminRoleRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	// Ensure the bootstrap super admin when configured
	if err := ensureBootstrapAdmin(adminRepo, cfg); err != nil {
		return nil, err
	}

	// Initialize services
	tokenService, err := services.NewTokenService(
		cfg.JWT.SessionTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	totpService := services.NewTOTPService(cfg.Security.TOTPIssuer)
	sessionCache := services.NewRedisSessionCache(rc, cfg.Cache.RedisPrefix)

	// Initialize flows
	adminAuthFlow := businessflow.NewAdminAuthFlow(
		adminRepo,
		sessionRepo,
		roleRepo,
		activityRepo,
		tokenService,
		totpService,
		sessionCache,
		db,
	)

	mfaFlow := businessflow.NewMFAFlow(
		adminRepo,
		activityRepo,
		totpService,
		db,
	)

	adminManagementFlow := businessflow.NewAdminManagementFlow(
		adminRepo,
		roleRepo,
		sessionRepo,
		activityRepo,
		db,
	)

	activityLogFlow := businessflow.NewActivityLogFlow(activityRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(adminAuthFlow)
	mfaHandler := handlers.NewMFAHandler(mfaFlow)
	adminHandler := handlers.NewAdminManagementHandler(adminManagementFlow)
	activityHandler := handlers.NewActivityLogHandler(activityLogFlow)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, sessionRepo, adminRepo, sessionCache)
	permissionMiddleware := middleware.NewPermissionMiddleware(roleRepo)

	// Initialize router
	appRouter := router.NewFiberRouter(
		router.Config{
			AppName:        "BillNet Admin API",
			AllowedOrigins: cfg.Security.AllowedOrigins,
			EnableMetrics:  cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
		},
		authHandler,
		mfaHandler,
		adminHandler,
		activityHandler,
		authMiddleware,
		permissionMiddleware,
	)

	stopCleanup := startSessionCleanup(context.Background(), sessionRepo, 1*time.Hour)
	stopFuncs = append(stopFuncs, stopCleanup)

	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureBootstrapAdmin creates the initial super admin when the accounts table
// is empty and bootstrap credentials are configured.
func ensureBootstrapAdmin(adminRepo repository.AdminAccountRepository, cfg *config.ProductionConfig) error {
	if cfg.Admin.BootstrapUsername == "" || cfg.Admin.BootstrapPassword == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := adminRepo.Count(ctx, models.AdminAccountFilter{})
	if err != nil {
		return fmt.Errorf("failed to count admin accounts: %w", err)
	}
	if total > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Admin.BootstrapPassword), cfg.Security.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	account := models.AdminAccount{
		UUID:         uuid.New(),
		Username:     cfg.Admin.BootstrapUsername,
		Email:        cfg.Admin.BootstrapEmail,
		PasswordHash: string(hash),
		FirstName:    "Super",
		LastName:     "Admin",
		Role:         models.RoleSuperAdmin,
		IsActive:     utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if err := adminRepo.Save(ctx, &account); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	log.Printf("Bootstrap super admin %q created", account.Username)
	return nil
}
