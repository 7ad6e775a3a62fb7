package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ainuod/DeliveryCOMPANY/internal/config"
	"github.com/ainuod/DeliveryCOMPANY/internal/entity"
	"github.com/ainuod/DeliveryCOMPANY/internal/handler"
	"github.com/ainuod/DeliveryCOMPANY/internal/middleware"
	"github.com/ainuod/DeliveryCOMPANY/internal/repository"
	"github.com/ainuod/DeliveryCOMPANY/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting delivery back office",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.ClientProfile{},
		&entity.Driver{},
		&entity.Vehicle{},
		&entity.Destination{},
		&entity.Shipment{},
		&entity.Parcel{},
		&entity.Tour{},
		&entity.Invoice{},
		&entity.Payment{},
		&entity.Incident{},
		&entity.Claim{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, rdb, cfg)
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.Refresh)
	}

	authorized := api.Group("")
	authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		authorized.POST("/auth/logout", h.Auth.Logout)
		authorized.GET("/auth/me", h.Auth.Me)

		backOffice := middleware.RequireRoles(entity.RoleAdmin, entity.RoleAgent)
		fieldStaff := middleware.RequireRoles(entity.RoleAdmin, entity.RoleAgent, entity.RoleDriver)
		withClients := middleware.RequireRoles(entity.RoleAdmin, entity.RoleAgent, entity.RoleClient)

		users := authorized.Group("/users", backOffice)
		{
			users.GET("", h.User.List)
			users.GET("/:id", h.User.Get)
		}

		destinations := authorized.Group("/destinations")
		{
			destinations.GET("", h.Logistics.ListDestinations)
			destinations.GET("/:id", h.Logistics.GetDestination)
			destinations.POST("", backOffice, h.Logistics.CreateDestination)
			destinations.PUT("/:id", backOffice, h.Logistics.UpdateDestination)
			destinations.DELETE("/:id", backOffice, h.Logistics.DeleteDestination)
		}

		drivers := authorized.Group("/drivers", backOffice)
		{
			drivers.GET("", h.Logistics.ListDrivers)
			drivers.GET("/:id", h.Logistics.GetDriver)
			drivers.POST("", h.Logistics.CreateDriver)
			drivers.PUT("/:id", h.Logistics.UpdateDriver)
		}

		vehicles := authorized.Group("/vehicles", backOffice)
		{
			vehicles.GET("", h.Logistics.ListVehicles)
			vehicles.GET("/:id", h.Logistics.GetVehicle)
			vehicles.POST("", h.Logistics.CreateVehicle)
			vehicles.PUT("/:id", h.Logistics.UpdateVehicle)
		}

		shipments := authorized.Group("/shipments")
		{
			shipments.GET("", h.Shipment.List)
			shipments.GET("/:id", h.Shipment.Get)
			shipments.POST("", withClients, h.Shipment.Create)
			shipments.PUT("/:id", backOffice, h.Shipment.Update)
			shipments.DELETE("/:id", backOffice, h.Shipment.Delete)
		}

		tours := authorized.Group("/tours", fieldStaff)
		{
			tours.GET("", h.Tour.List)
			tours.GET("/:id", h.Tour.Get)
			tours.POST("", backOffice, h.Tour.Create)
			tours.PUT("/:id", backOffice, h.Tour.Update)
			tours.DELETE("/:id", backOffice, h.Tour.Delete)
			tours.POST("/:id/shipments", backOffice, h.Tour.AssignShipments)
		}

		invoices := authorized.Group("/invoices")
		{
			invoices.GET("", h.Invoice.List)
			invoices.GET("/:id", h.Invoice.Get)
			invoices.GET("/:id/export", h.Invoice.Export)
			invoices.POST("", backOffice, h.Invoice.Create)
			invoices.PUT("/:id/status", backOffice, h.Invoice.UpdateStatus)
			invoices.DELETE("/:id", backOffice, h.Invoice.Delete)
		}

		payments := authorized.Group("/payments")
		{
			payments.GET("", h.Invoice.ListPayments)
			payments.POST("", backOffice, h.Invoice.RecordPayment)
		}

		incidents := authorized.Group("/incidents", fieldStaff)
		{
			incidents.GET("", h.Support.ListIncidents)
			incidents.GET("/:id", h.Support.GetIncident)
			incidents.POST("", h.Support.CreateIncident)
			incidents.PUT("/:id", backOffice, h.Support.UpdateIncident)
			incidents.POST("/:id/photo", h.Support.UploadPhoto)
			incidents.GET("/:id/photo", h.Support.DownloadPhoto)
		}

		claims := authorized.Group("/claims")
		{
			claims.GET("", withClients, h.Support.ListClaims)
			claims.GET("/:id", withClients, h.Support.GetClaim)
			claims.POST("", withClients, h.Support.CreateClaim)
			claims.PUT("/:id", backOffice, h.Support.UpdateClaim)
		}

		authorized.GET("/dashboard/overview", backOffice, h.Dashboard.Overview)
	}
}
