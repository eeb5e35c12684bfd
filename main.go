package main

import (
	"database/sql"
	"net/http"
	"os"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/config"
	"inventory-audit/internal/metrics"
	"inventory-audit/internal/publisher"
	"inventory-audit/internal/repository"
	"inventory-audit/internal/server"
	"inventory-audit/internal/service"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	log "github.com/sirupsen/logrus"

	"github.com/labstack/echo/v4"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err).Fatal("Could not load configuration")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	log.Info("Starting database migration...")
	m, err := migrate.New(cfg.DB.MigrationsPath, cfg.DB.URL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not create migrate instance")
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.WithField("error", err).Fatal("Could not apply migration")
	}
	log.Info("Database migration finished successfully.")

	db, err := sql.Open("postgres", cfg.DB.URL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not connect to the database")
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	db.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DB.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		log.WithField("error", err).Fatal("Could not ping the database")
	}
	log.Info("Successfully connected to the PostgreSQL database.")

	// Repositories
	assetRepository := repository.NewPostgresAssetRepository(db)
	branchRepository := repository.NewPostgresBranchRepository(db)
	phoneRepository := repository.NewPostgresPhoneRepository(db)
	softwareRepository := repository.NewPostgresSoftwareRepository(db)
	emailRepository := repository.NewPostgresEmailRepository(db)
	auditRepository := repository.NewPostgresAuditRepository(db)

	// Audit engine
	var classifierOpts []audit.ClassifierOption
	if cfg.Audit.DetectRemovedFields {
		classifierOpts = append(classifierOpts, audit.WithRemovedFields())
	}

	auditOpts := []service.AuditOption{
		service.WithClassifier(audit.NewClassifier(classifierOpts...)),
		service.WithMetrics(metrics.NewAuditMetrics(prometheus.DefaultRegisterer)),
		service.WithListLimits(cfg.Audit.DefaultListLimit, cfg.Audit.MaxListLimit),
	}

	if cfg.Kafka.BootstrapServers != "" {
		auditPublisher, err := publisher.NewAuditPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.AuditTopic)
		if err != nil {
			log.WithField("error", err).Fatal("Could not create audit publisher")
		}
		defer auditPublisher.Close()
		auditOpts = append(auditOpts,
			service.WithPublisher(auditPublisher),
			service.WithPublishQueue(cfg.Kafka.PublishQueue),
		)
	} else {
		log.Info("KAFKA_BOOTSTRAP_SERVERS not set, audit events will not be mirrored")
	}

	// Services
	auditService := service.NewAuditService(auditRepository, auditOpts...)
	defer auditService.Close()
	assetService := service.NewAssetService(assetRepository, auditService)
	branchService := service.NewBranchService(branchRepository, auditService)
	phoneService := service.NewPhoneService(phoneRepository, auditService)
	softwareService := service.NewSoftwareService(softwareRepository, auditService)
	emailService := service.NewEmailService(emailRepository, auditService)

	// Servers
	srv := server.NewServer(db)
	assetServer := server.NewAssetServer(assetService)
	branchServer := server.NewBranchServer(branchService)
	phoneServer := server.NewPhoneServer(phoneService)
	softwareServer := server.NewSoftwareServer(softwareService)
	emailServer := server.NewEmailServer(emailService)
	auditServer := server.NewAuditServer(auditService)

	e := echo.New()
	e.HideBanner = true

	e.GET("/health", srv.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	assets := api.Group("/assets")
	assets.GET("", assetServer.ListAssets)
	assets.POST("", assetServer.CreateAsset)
	assets.GET("/:id", assetServer.GetAsset)
	assets.PUT("/:id", assetServer.UpdateAsset)
	assets.DELETE("/:id", assetServer.DeleteAsset)

	branches := api.Group("/branches")
	branches.GET("", branchServer.ListBranches)
	branches.POST("", branchServer.CreateBranch)
	branches.GET("/:id", branchServer.GetBranch)
	branches.PUT("/:id", branchServer.UpdateBranch)
	branches.DELETE("/:id", branchServer.DeleteBranch)

	phones := api.Group("/phones")
	phones.GET("", phoneServer.ListPhones)
	phones.POST("", phoneServer.CreatePhone)
	phones.GET("/:id", phoneServer.GetPhone)
	phones.PUT("/:id", phoneServer.UpdatePhone)
	phones.DELETE("/:id", phoneServer.DeletePhone)

	software := api.Group("/software")
	software.GET("", softwareServer.ListSoftware)
	software.POST("", softwareServer.CreateSoftware)
	software.GET("/:id", softwareServer.GetSoftware)
	software.PUT("/:id", softwareServer.UpdateSoftware)
	software.DELETE("/:id", softwareServer.DeleteSoftware)

	emails := api.Group("/emails")
	emails.GET("", emailServer.ListEmails)
	emails.POST("", emailServer.CreateEmail)
	emails.GET("/:id", emailServer.GetEmail)
	emails.PUT("/:id", emailServer.UpdateEmail)
	emails.DELETE("/:id", emailServer.DeleteEmail)

	logs := api.Group("/logs")
	logs.GET("", auditServer.ListLogs)
	logs.GET("/statistics", auditServer.Statistics)
	logs.GET("/entity/:id", auditServer.ListEntityLogs)

	log.WithField("port", cfg.HTTP.Port).Info("Inventory audit service is starting with Echo")

	if err := e.Start(":" + cfg.HTTP.Port); err != nil && err != http.ErrServerClosed {
		log.WithField("error", err).Fatal("Echo server failed to start")
	}
}
