package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"idcard-backend/internal/models"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string

	// Ingestion
	MaxRows        int
	PreviewRows    int
	MaxUploadBytes int64

	// Photos
	AssetRoot         string
	PhotoFetchTimeout time.Duration
	PhotoBatchTimeout time.Duration
	PhotoMaxBytes     int64
	PhotoWorkers      int
	PhotoMatchByID    bool

	// Jobs
	RetentionTTL      time.Duration
	WorkerConcurrency int

	// Card template
	CardGridRows    int
	CardGridCols    int
	CardWidthMM     float64
	CardHeightMM    float64
	CardOrientation string
	PageWidthMM     float64
	PageHeightMM    float64

	// Artifacts
	ArtifactBackend       string
	ArtifactDir           string
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string
	GCSBucket             string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := godotenv.Load(); err == nil {
			log.Println("Loaded environment variables from .env")
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/"),

		MaxRows:        getEnvInt("MAX_ROWS", 5000),
		PreviewRows:    getEnvInt("PREVIEW_ROWS", 20),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 32<<20)),

		AssetRoot:         getEnv("ASSET_ROOT", "assets"),
		PhotoFetchTimeout: getEnvDuration("PHOTO_FETCH_TIMEOUT", 5*time.Second),
		PhotoBatchTimeout: getEnvDuration("PHOTO_BATCH_TIMEOUT", 60*time.Second),
		PhotoMaxBytes:     int64(getEnvInt("PHOTO_MAX_BYTES", 5<<20)),
		PhotoWorkers:      getEnvInt("PHOTO_WORKERS", 8),
		PhotoMatchByID:    getEnvBool("PHOTO_MATCH_BY_ID", false),

		RetentionTTL:      getEnvDuration("RETENTION_TTL", time.Hour),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),

		CardWidthMM:     getEnvFloat("CARD_WIDTH_MM", 85.6),
		CardHeightMM:    getEnvFloat("CARD_HEIGHT_MM", 53.98),
		CardOrientation: strings.ToLower(getEnv("CARD_ORIENTATION", "landscape")),
		PageWidthMM:     getEnvFloat("PAGE_WIDTH_MM", 210),
		PageHeightMM:    getEnvFloat("PAGE_HEIGHT_MM", 297),

		ArtifactBackend:       strings.ToLower(getEnv("ARTIFACT_BACKEND", "local")),
		ArtifactDir:           getEnv("ARTIFACT_DIR", "artifacts"),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "id-cards"),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
	}

	// Portrait CR80 cards tile A4 as 3x3, landscape as 5x2.
	if cfg.CardOrientation == "portrait" {
		cfg.CardGridRows = getEnvInt("CARD_GRID_ROWS", 3)
		cfg.CardGridCols = getEnvInt("CARD_GRID_COLS", 3)
	} else {
		cfg.CardGridRows = getEnvInt("CARD_GRID_ROWS", 5)
		cfg.CardGridCols = getEnvInt("CARD_GRID_COLS", 2)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxRows <= 0 {
		return fmt.Errorf("MAX_ROWS must be positive")
	}
	if c.PreviewRows <= 0 {
		return fmt.Errorf("PREVIEW_ROWS must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.PhotoFetchTimeout <= 0 || c.PhotoBatchTimeout <= 0 {
		return fmt.Errorf("PHOTO_FETCH_TIMEOUT and PHOTO_BATCH_TIMEOUT must be positive")
	}
	if c.PhotoMaxBytes <= 0 {
		return fmt.Errorf("PHOTO_MAX_BYTES must be positive")
	}
	if c.PhotoWorkers <= 0 {
		return fmt.Errorf("PHOTO_WORKERS must be positive")
	}
	if c.WorkerConcurrency <= 0 {
		return fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}
	if c.CardGridRows <= 0 || c.CardGridCols <= 0 {
		return fmt.Errorf("CARD_GRID_ROWS and CARD_GRID_COLS must be positive")
	}
	if c.CardWidthMM <= 0 || c.CardHeightMM <= 0 || c.PageWidthMM <= 0 || c.PageHeightMM <= 0 {
		return fmt.Errorf("card and page dimensions must be positive")
	}
	if c.CardOrientation != "landscape" && c.CardOrientation != "portrait" {
		return fmt.Errorf("CARD_ORIENTATION must be landscape or portrait, got %q", c.CardOrientation)
	}
	if c.RetentionTTL <= 0 {
		return fmt.Errorf("RETENTION_TTL must be positive")
	}

	switch c.ArtifactBackend {
	case "local":
		if c.ArtifactDir == "" {
			return fmt.Errorf("ARTIFACT_DIR is required for the local artifact backend")
		}
	case "supabase":
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase artifact backend")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required for the supabase artifact backend")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs artifact backend")
		}
	default:
		return fmt.Errorf("unknown ARTIFACT_BACKEND %q", c.ArtifactBackend)
	}
	if err := c.CardTemplate().Validate(); err != nil {
		return fmt.Errorf("card template: %w", err)
	}
	return nil
}

// CardTemplate builds the physical card layout. Portrait orientation swaps
// the card's width and height.
func (c *Config) CardTemplate() models.CardTemplate {
	tpl := models.DefaultCardTemplate()
	tpl.PageWidth = c.PageWidthMM
	tpl.PageHeight = c.PageHeightMM
	tpl.GridRows = c.CardGridRows
	tpl.GridCols = c.CardGridCols
	tpl.CardWidth = c.CardWidthMM
	tpl.CardHeight = c.CardHeightMM
	if c.CardOrientation == "portrait" {
		tpl.CardWidth, tpl.CardHeight = c.CardHeightMM, c.CardWidthMM
		tpl.Fields = models.PortraitFields()
	}
	return tpl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a boolean, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
