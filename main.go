package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lekhapal/shg-digitizer/cache"
	"github.com/lekhapal/shg-digitizer/client"
	"github.com/lekhapal/shg-digitizer/config"
	"github.com/lekhapal/shg-digitizer/handler"
	"github.com/lekhapal/shg-digitizer/logger"
	"github.com/lekhapal/shg-digitizer/repository"
	"github.com/lekhapal/shg-digitizer/service"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := newRepository(cfg, log)
	if err != nil {
		return err
	}

	resultCache, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	// The upload endpoint still serves CSV and XLSX without a provider.
	var extractor service.Extractor
	provider, err := client.NewProvider(ctx, cfg)
	if err != nil {
		log.Warn("AI extraction disabled", zap.String("provider", cfg.ExtractionProvider), zap.Error(err))
	} else {
		defer provider.Close()
		extractor = provider
	}

	hinters := []service.TextHinter{service.NewPDFHinter(service.NewPDFProcessor())}
	if cfg.OCRHintsEnabled {
		hinters = append(hinters, client.NewTesseractClient(cfg.TesseractDataPath))
	}

	extractionService := service.NewExtractionService(extractor, resultCache, cfg.ExtractionTimeout, log, hinters...)
	uploadService := service.NewUploadService(extractionService, repo, log)
	documentService := service.NewDocumentService(repo, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(log,
		handler.NewUploadHandler(uploadService, cfg.MaxUploadBytes, cfg.CSVHeaderRow, log),
		handler.NewTableHandler(documentService, log),
		handler.NewDocumentHandler(documentService, log),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting SHG Record Digitizer",
			zap.String("port", cfg.ServerPort),
			zap.String("env", cfg.Env),
			zap.String("provider", cfg.ExtractionProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRepository(cfg *config.Config, log *zap.Logger) (repository.Repository, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, tables are kept in memory")
		return repository.NewMemoryRepository(), nil
	}
	db, err := repository.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("connected to postgres")
	return repository.NewGormRepository(db), nil
}

func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.ResultCache, func()) {
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err == nil {
			log.Info("extraction cache backed by redis")
			return rc, func() { _ = rc.Close() }
		}
		log.Warn("redis unavailable, falling back to in-memory cache", zap.Error(err))
	}
	mc := cache.NewMemoryCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	return mc, func() { _ = mc.Close() }
}
