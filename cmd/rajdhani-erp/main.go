package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/cache"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/config"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/handler"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/service"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/metrics"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/middleware"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/sse"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/storage"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/worker"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "rajdhani-erp"

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting "+serviceName,
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed", zap.String("driver", cfg.Database.Driver))

	store := initCache(cfg.Redis, zapLogger)
	images := initImageStore(cfg.MinIO, zapLogger)
	m := metrics.New()
	hub := sse.NewHub()

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, db, service.Options{
		Logger:       zapLogger,
		Cache:        store,
		Events:       hub,
		Images:       images,
		Metrics:      m,
		DraftTTL:     cfg.Monitor.DraftTTL,
		DashboardTTL: cfg.Monitor.DashboardTTL,
	})
	handlers := handler.NewHandlers(services, zapLogger)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics(m))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/v1/notifications/stream"})))

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": serviceName, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    serviceName,
			"version":    Version,
			"build_time": BuildTime,
		})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.JWT.Secret))
	api.Use(middleware.Idempotency(store, cfg.Monitor.IdempotencyTTL, zapLogger))
	handlers.Register(api, hub.Stream)

	// 后台库存巡检
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if cfg.Monitor.Enabled {
		monitor := worker.NewLowStockMonitor(services.Notification, cfg.Monitor.StockScanInterval, zapLogger)
		go monitor.Run(workerCtx)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopWorkers()

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
	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}
	if cfg.LogSQL {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path + "?_foreign_keys=on")
	case "postgres", "":
		dialector = postgres.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.Driver == "sqlite" {
		// a single writer avoids SQLITE_BUSY under concurrent requests
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

// initCache prefers redis and falls back to an in-process store when it is unreachable.
func initCache(cfg config.RedisConfig, logger *zap.Logger) cache.Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	store := cache.NewRedisStore(rdb, serviceName+":")

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.Warn("Redis unavailable, using in-memory cache", zap.String("addr", cfg.Addr()), zap.Error(err))
		_ = rdb.Close()
		return cache.NewMemoryStore()
	}
	logger.Info("Redis cache connected", zap.String("addr", cfg.Addr()))
	return store
}

// initImageStore returns nil when MinIO is not configured; uploads then fail with a state error.
func initImageStore(cfg config.MinIOConfig, logger *zap.Logger) service.ImageStore {
	if cfg.Endpoint == "" {
		logger.Info("MinIO endpoint not set, image uploads disabled")
		return nil
	}
	minioStore, err := storage.NewMinIOStore(cfg)
	if err != nil {
		logger.Warn("Failed to init MinIO client, image uploads disabled", zap.Error(err))
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := minioStore.EnsureBucket(ctx); err != nil {
		logger.Warn("MinIO bucket check failed, image uploads disabled", zap.Error(err))
		return nil
	}
	logger.Info("MinIO image store ready", zap.String("bucket", cfg.Bucket))
	return minioStore
}
