package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"agroprice/internal/config"
	"agroprice/internal/handler"
	"agroprice/internal/imageprep"
	"agroprice/internal/logging"
	"agroprice/internal/parser"
	_ "agroprice/internal/parser/openai" // registers the openai and dashscope providers
	"agroprice/internal/port"
	"agroprice/internal/repository/memory"
	"agroprice/internal/repository/postgres"
	redisstore "agroprice/internal/repository/redis"
	"agroprice/internal/router"
	"agroprice/internal/service"
	s3storage "agroprice/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()
	logging.Install(logger)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	catalogRepo := postgres.NewCatalogRepo(db)
	trendRepo := postgres.NewPriceTrendRepo(db)

	var redisClient *goredis.Client
	var taskStore port.TaskStore
	switch cfg.TaskStore.Driver {
	case "redis":
		redisClient, err = redisstore.NewClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		taskStore = redisstore.NewTaskStore(redisClient, cfg.TaskStore.Prefix, cfg.TaskStore.TTL)
		log.Printf("Task store: redis at %s (ttl=%s)", cfg.Redis.Addr, cfg.TaskStore.TTL)
	case "memory", "":
		taskStore = memory.NewTaskStore()
		log.Println("Task store: in-memory (task state is lost on restart)")
	default:
		return fmt.Errorf("unknown task store driver: %s", cfg.TaskStore.Driver)
	}

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	uploader := service.NewImageUploader(s3Client, &cfg.S3)

	// Initialize vision extractor
	extractor, err := parser.NewExtractor(&cfg.Vision)
	if err != nil {
		return fmt.Errorf("failed to initialize vision provider: %w", err)
	}
	extractor = parser.NewLimitedExtractor(extractor, cfg.Vision.MaxConcurrent)
	log.Printf("Vision provider: %s (model=%s, max concurrent=%d)",
		cfg.Vision.Provider, cfg.Vision.Model, cfg.Vision.MaxConcurrent)

	pool := service.NewTaskPool(service.TaskPoolConfig{
		Concurrency: cfg.Tasks.Concurrency,
		QueueSize:   cfg.Tasks.QueueSize,
		TaskTimeout: time.Duration(cfg.Tasks.TaskTimeoutSecs) * time.Second,
	})

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)
	trendSvc := service.NewPriceTrendService(trendRepo, catalogRepo)
	parseSvc := service.NewPriceParseService(
		taskStore,
		pool,
		catalogRepo,
		extractor,
		uploader,
		imageprep.New(cfg.Vision.MaxImageDimension),
		trendSvc,
		service.ParseServiceConfig{
			MaxImages: cfg.Tasks.MaxImages,
			AutoSave:  cfg.Tasks.AutoSave,
		},
	)

	// Initialize handlers
	priceH := handler.NewPriceTrendHandler(parseSvc)
	healthH := handler.NewHealthHandler(db, redisClient)

	// Setup router
	r := router.Setup(authSvc, priceH, healthH, cfg.CORS.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Tasks.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		log.Printf("Task pool shutdown: in-flight tasks were cancelled: %v", err)
	}

	log.Println("Server stopped")
	return nil
}
