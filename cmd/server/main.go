// @title           ID Card Generator API
// @version         1.0.0
// @description     Turns a spreadsheet of people into a print-ready PDF of ID cards. Upload an .xlsx or .xls file, preview it, then generate and download the card sheet.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"idcard-backend/internal/config"
	"idcard-backend/internal/handlers"
	"idcard-backend/internal/jobs"
	"idcard-backend/internal/middleware"
	"idcard-backend/internal/photo"
	"idcard-backend/internal/render"
	"idcard-backend/internal/services"
	"idcard-backend/internal/spreadsheet"
	"idcard-backend/internal/storage"
	"idcard-backend/internal/supabase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode and logger format
	var logger *slog.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	artifacts, err := newArtifactStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize %s artifact store: %v", cfg.ArtifactBackend, err)
	}
	if closer, ok := artifacts.(io.Closer); ok {
		defer closer.Close()
	}

	tpl := cfg.CardTemplate()
	photoW, photoH := tpl.PhotoSize()
	resolver := photo.NewResolver(photo.Config{
		AssetRoot:    cfg.AssetRoot,
		FetchTimeout: cfg.PhotoFetchTimeout,
		BatchTimeout: cfg.PhotoBatchTimeout,
		MaxBytes:     cfg.PhotoMaxBytes,
		Workers:      cfg.PhotoWorkers,
		MatchByID:    cfg.PhotoMatchByID,
		SlotWidthMM:  photoW,
		SlotHeightMM: photoH,
	}, logger)

	store := jobs.NewStore(cfg.RetentionTTL, logger)
	jobService := services.NewJobService(
		store,
		spreadsheet.NewParser(cfg.MaxRows),
		resolver,
		render.NewRenderer(resolver.Placeholder(), logger),
		render.NewVerifier(),
		artifacts,
		services.JobServiceConfig{
			PreviewRows:       cfg.PreviewRows,
			WorkerConcurrency: cfg.WorkerConcurrency,
			RetentionTTL:      cfg.RetentionTTL,
			BaseURL:           cfg.BaseURL,
			Template:          tpl,
		},
		logger,
	)

	// Expired uploads are swept a few times per retention window
	go store.Run(ctx, janitorInterval(cfg.RetentionTTL))

	// Initialize handlers
	uploadHandler := handlers.NewUploadHandler(jobService)
	generateHandler := handlers.NewGenerateHandler(jobService)
	downloadHandler := handlers.NewDownloadHandler(jobService)
	statusHandler := handlers.NewStatusHandler(jobService)
	healthHandler := handlers.NewHealthHandler(jobService)

	// Setup router
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check
	router.GET("/health", healthHandler.Health)

	// API routes
	api := router.Group("/api")

	// Upload and generation
	api.POST("/upload", middleware.BodyLimit(cfg.MaxUploadBytes), uploadHandler.Upload)
	api.POST("/generate-pdf", generateHandler.Generate)
	api.GET("/download/:artifact_id", downloadHandler.Download)

	// Upload lifecycle
	api.GET("/uploads/:upload_id", statusHandler.GetStatus)
	api.GET("/uploads/:upload_id/preview", statusHandler.GetPreview)
	api.DELETE("/uploads/:upload_id", statusHandler.DeleteUpload)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "artifact_backend", cfg.ArtifactBackend)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
		logger.Info("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}
}

func newArtifactStore(ctx context.Context, cfg *config.Config) (storage.ArtifactStore, error) {
	switch cfg.ArtifactBackend {
	case "supabase":
		return supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseStorageBucket)
	case "gcs":
		return storage.NewGCSStore(ctx, cfg.GCSBucket)
	default:
		return storage.NewLocalStore(cfg.ArtifactDir)
	}
}

func janitorInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return interval
}
