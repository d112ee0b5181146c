package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Host                 string
	Port                 string        `validate:"required,numeric"`
	UploadFolder         string        `validate:"required"`
	MetadataFile         string        `validate:"required"`
	StoreBackend         string        `validate:"oneof=json badger firestore"`
	BadgerDir            string        // Directory for the badger store (STORE_BACKEND=badger)
	ContentBackend       string        `validate:"oneof=local gcs minio"`
	GCPProjectID         string        // Required for STORE_BACKEND=firestore
	GCSBucketName        string        // Required for CONTENT_BACKEND=gcs
	GCPCredentialsPath   string        // Service account file (local development)
	GCPCredentialsJSON   string        // Raw service account JSON (serverless)
	FirestoreCollection  string        `validate:"required"`
	MinioEndpoint        string        // host:port, required for CONTENT_BACKEND=minio
	MinioAccessKey       string
	MinioSecretKey       string
	MinioBucket          string        `validate:"required"`
	MinioUseSSL          bool
	MaxUploadSize        int64         `validate:"gt=0"`
	ConvertHEIC          bool          // Store HEIC uploads as JPEG
	ThumbnailSize        int           `validate:"gt=0,lte=2048"`
	CacheTTL             time.Duration `validate:"gt=0"`
	CacheCleanupInterval time.Duration `validate:"gt=0"`
	AllowedOrigins       []string
	APIKeys              []string // Optional API keys guarding uploads (comma-separated)
	UploadRateLimit      float64  `validate:"gte=0"` // Uploads per second per client, 0 disables
	UploadRateBurst      int      `validate:"gte=0"`
	GoogleDriveFolderID  string   // Google Drive folder to import from
	GoogleAPIKey         string   // Google API key for Drive access
	DriveSyncInterval    time.Duration
}

// Load reads configuration from environment variables and .env file.
// It loads the .env file if present, then populates the Config struct.
// Returns an error if the resulting configuration is invalid.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Host:                 getEnv("HOST", ""),
		Port:                 getEnv("PORT", "8080"),
		UploadFolder:         getEnv("UPLOAD_FOLDER", "uploads"),
		MetadataFile:         getEnv("METADATA_FILE", "metadata.json"),
		StoreBackend:         strings.ToLower(getEnv("STORE_BACKEND", "json")),
		BadgerDir:            getEnv("BADGER_DIR", "data/badger"),
		ContentBackend:       strings.ToLower(getEnv("CONTENT_BACKEND", "local")),
		GCPProjectID:         getEnv("GCP_PROJECT_ID", ""),
		GCSBucketName:        getEnv("GCS_BUCKET_NAME", ""),
		GCPCredentialsPath:   getEnv("GCP_CREDENTIALS_PATH", ""),
		GCPCredentialsJSON:   getEnv("GCP_CREDENTIALS_JSON", ""),
		FirestoreCollection:  getEnv("FIRESTORE_COLLECTION", "images"),
		MinioEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:          getEnv("MINIO_BUCKET", "images"),
		MinioUseSSL:          getBoolEnv("MINIO_USE_SSL", false),
		MaxUploadSize:        int64(getIntEnv("MAX_UPLOAD_SIZE", 32<<20)),
		ConvertHEIC:          getBoolEnv("CONVERT_HEIC", false),
		ThumbnailSize:        getIntEnv("THUMBNAIL_SIZE", 320),
		CacheTTL:             getDurationEnv("CACHE_TTL", 15*time.Minute),
		CacheCleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 10*time.Minute),
		AllowedOrigins:       getList("ALLOWED_ORIGINS", []string{"*"}),
		APIKeys:              getList("API_KEYS", []string{}),
		UploadRateLimit:      getFloatEnv("UPLOAD_RATE_LIMIT", 2),
		UploadRateBurst:      getIntEnv("UPLOAD_RATE_BURST", 5),
		GoogleDriveFolderID:  getEnv("GOOGLE_DRIVE_FOLDER_ID", ""),
		GoogleAPIKey:         getEnv("GOOGLE_API_KEY", ""),
		DriveSyncInterval:    getDurationEnv("DRIVE_SYNC_INTERVAL", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints and the settings each backend needs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.StoreBackend == "firestore" && c.GCPProjectID == "" {
		return fmt.Errorf("GCP_PROJECT_ID is required when STORE_BACKEND=firestore")
	}
	if c.StoreBackend == "badger" && c.BadgerDir == "" {
		return fmt.Errorf("BADGER_DIR is required when STORE_BACKEND=badger")
	}
	if c.ContentBackend == "gcs" && c.GCSBucketName == "" {
		return fmt.Errorf("GCS_BUCKET_NAME is required when CONTENT_BACKEND=gcs")
	}
	if c.ContentBackend == "minio" && c.MinioEndpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required when CONTENT_BACKEND=minio")
	}
	if c.DriveSyncInterval < 0 {
		return fmt.Errorf("DRIVE_SYNC_INTERVAL cannot be negative")
	}
	return nil
}

// Addr returns the listener address built from HOST and PORT.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// UsesGoogleCloud reports whether any backend needs GCP client credentials.
func (c *Config) UsesGoogleCloud() bool {
	return c.StoreBackend == "firestore" || c.ContentBackend == "gcs"
}

// Retrieves an environment variable or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// Retrieves a duration from environment variable or returns a default value.
// It supports both time.Duration format (e.g., "10m", "12h") and integer minutes.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

// Retrieves a comma-separated list from environment variable or returns a default value.
func getList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return defaultValue
}

// Retrieves a boolean from environment variable or returns a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
