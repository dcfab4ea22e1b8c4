package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"coderena/internal/common/cache"
	"coderena/internal/common/db"
	"coderena/internal/common/http/middleware"
	"coderena/internal/common/mq"
	"coderena/internal/common/storage"
	"coderena/internal/contest/controller"
	"coderena/internal/contest/executor"
	"coderena/internal/contest/referee"
	"coderena/internal/contest/repository"
	"coderena/internal/contest/service"
	appErr "coderena/pkg/errors"
	"coderena/pkg/utils/logger"
	"coderena/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/contest-service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	// Local development keeps secrets in .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	database, err := db.NewMySQL(cfg.MySQL)
	if err != nil {
		logger.Error(ctx, "init mysql failed", zap.Error(err))
		return
	}
	defer func() { _ = database.Close() }()

	redisCache, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		logger.Error(ctx, "init redis failed", zap.Error(err))
		return
	}
	defer func() { _ = redisCache.Close() }()

	var publisher service.ResultPublisher
	if cfg.Events.Enabled {
		kafkaPublisher, err := mq.NewKafkaPublisher(cfg.Kafka)
		if err != nil {
			logger.Error(ctx, "init kafka failed", zap.Error(err))
			return
		}
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = service.NewMQResultPublisher(kafkaPublisher, cfg.Events.Topic)
	}

	var archive storage.ObjectStorage
	if cfg.Archive.Enabled {
		archive, err = storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			logger.Error(ctx, "init minio failed", zap.Error(err))
			return
		}
	}

	dispatcher, err := executor.NewHTTPDispatcher(cfg.Engine)
	if err != nil {
		logger.Error(ctx, "init execution client failed", zap.Error(err))
		return
	}

	submissionRepo := repository.NewSubmissionRepository(database, redisCache,
		cfg.Cache.SubmissionTTL, cfg.Cache.SubmissionEmptyTTL)
	problemRepo := repository.NewProblemRepository(database, redisCache,
		cfg.Cache.ProblemTTL, cfg.Cache.ProblemEmptyTTL)
	teamRepo := repository.NewTeamRepository(database)

	scoreService := service.NewScoreService(cfg.Score, database, redisCache, submissionRepo, teamRepo)
	submissionService := service.NewSubmissionService(cfg.Submission,
		submissionRepo, problemRepo, teamRepo,
		dispatcher, referee.NewDiffReferee(), scoreService, publisher, archive)

	router := newRouter(database, redisCache, submissionService)

	server := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info(ctx, "contest service listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "http server failed", zap.Error(err))
			stop()
		}
	}()

	<-notifyCtx.Done()
	logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "shutdown failed", zap.Error(err))
	}
}

func newRouter(database db.Database, redisCache cache.Cache, submissions *service.SubmissionService) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.TraceContext(), middleware.AccessLog())

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "mysql": err.Error()})
			return
		}
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	controller.NewSubmissionController(submissions).RegisterRoutes(api)

	router.NoRoute(func(c *gin.Context) {
		response.ErrorWithCode(c, appErr.NotFound, "route not found")
	})
	return router
}
