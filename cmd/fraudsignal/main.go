package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richxcame/trust-safety/internal/fraud"
	"github.com/richxcame/trust-safety/internal/gps"
	"github.com/richxcame/trust-safety/internal/multiaccount"
	"github.com/richxcame/trust-safety/pkg/common"
	"github.com/richxcame/trust-safety/pkg/config"
	"github.com/richxcame/trust-safety/pkg/logger"
	"github.com/richxcame/trust-safety/pkg/redis"
)

const serviceName = "fraudsignal"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(serviceName, cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Connect to PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		logger.Fatal("invalid database configuration", zap.Error(err))
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// Wire the detectors
	engineCfg := multiaccount.Config{
		SimilarityThreshold: cfg.Detectors.SimilarityThreshold,
		AlertThreshold:      cfg.Detectors.AccountAlertThreshold,
		HighRiskThreshold:   cfg.Detectors.HighRiskThreshold,
		Concurrency:         cfg.Detectors.CandidateConcurrency,
	}
	engine := multiaccount.NewEngine(engineCfg, nil)

	analyzerCfg := gps.DefaultConfig()
	analyzerCfg.AlertThreshold = cfg.Detectors.GPSAlertThreshold
	analyzerCfg.MaxSpeedKmh = cfg.Detectors.MaxSpeedKmh
	analyzerCfg.MaxTeleportDistanceM = cfg.Detectors.MaxTeleportDistanceM
	analyzerCfg.MinUpdateIntervalS = cfg.Detectors.MinUpdateIntervalS
	if cfg.Detectors.ServiceAreas != "" {
		areas, err := gps.ParseServiceAreas(cfg.Detectors.ServiceAreas)
		if err != nil {
			logger.Fatal("invalid SERVICE_AREAS", zap.Error(err))
		}
		analyzerCfg.ServiceAreas = areas
	}
	if cfg.Detectors.RestrictedZones != "" {
		zones, err := gps.ParseRestrictedZones(cfg.Detectors.RestrictedZones)
		if err != nil {
			logger.Fatal("invalid RESTRICTED_ZONES", zap.Error(err))
		}
		analyzerCfg.RestrictedZones = zones
	}
	analyzer := gps.NewAnalyzer(analyzerCfg)

	alertRepo := fraud.NewRepository(db)
	accountRepo := multiaccount.NewRepository(db)
	cacheTTL := time.Duration(cfg.Detectors.AnalysisCacheTTL) * time.Second
	service := fraud.NewService(alertRepo, accountRepo, engine, analyzer, redisClient, cacheTTL)
	handler := fraud.NewHandler(service)

	// Set up Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check and metrics
	router.GET("/healthz", common.HealthCheckWithDeps(serviceName, "1.0.0", map[string]func() error{
		"postgres": func() error { return db.Ping(context.Background()) },
		"redis":    func() error { return redisClient.Ping(context.Background()).Err() },
	}))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	addr := ":" + cfg.Server.Port
	logger.Info("fraud signal service starting", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
