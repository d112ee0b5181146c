package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"photo-album/internal/config"
	"photo-album/internal/content"
	"photo-album/internal/handlers"
	"photo-album/internal/middleware"
	"photo-album/internal/router"
	"photo-album/internal/services"
	"photo-album/internal/store"
)

// Services holds all initialized services for the application
type Services struct {
	Cache    *services.CacheService
	Metadata store.MetadataStore
	Content  content.Store
	Gallery  *services.GalleryService
	Drive    *services.DriveImporter // May be nil if Drive import is not configured

	closers []func() error
}

// Close releases backend clients in reverse order of creation.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Builds the client options for Google APIs from the configured credentials.
// With neither set, the clients fall back to Application Default Credentials.
func googleOptions(cfg *config.Config) []option.ClientOption {
	var opts []option.ClientOption
	if cfg.GCPCredentialsJSON != "" {
		// Use JSON credentials from environment variable (preferred for serverless)
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GCPCredentialsJSON)))
	} else if cfg.GCPCredentialsPath != "" {
		// Use credentials file (for local development)
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsPath))
	} else if cfg.UsesGoogleCloud() {
		log.Println("No GCP credentials configured, using Application Default Credentials")
	}
	return opts
}

// InitServices initializes all application services based on configuration.
// Returns the initialized services or an error if initialization fails.
func InitServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	svcs := &Services{}
	fail := func(err error) (*Services, error) {
		svcs.Close()
		return nil, err
	}

	opts := googleOptions(cfg)

	metadata, err := openMetadataStore(ctx, cfg, opts)
	if err != nil {
		return fail(err)
	}
	svcs.Metadata = metadata
	svcs.closers = append(svcs.closers, metadata.Close)

	files, closeFiles, err := openContentStore(ctx, cfg, opts)
	if err != nil {
		return fail(err)
	}
	svcs.Content = files
	if closeFiles != nil {
		svcs.closers = append(svcs.closers, closeFiles)
	}

	svcs.Cache = services.NewCacheService(cfg.CacheTTL, cfg.CacheCleanupInterval)
	svcs.closers = append(svcs.closers, func() error { svcs.Cache.Close(); return nil })

	svcs.Gallery = services.NewGalleryService(metadata, files, svcs.Cache, services.GalleryOptions{
		ConvertHEIC:   cfg.ConvertHEIC,
		ThumbnailSize: cfg.ThumbnailSize,
	})

	if cfg.GoogleDriveFolderID != "" {
		importer, err := newDriveImporter(ctx, cfg, opts, svcs.Gallery)
		if err != nil {
			log.Printf("Drive import disabled: %v", err)
		} else {
			svcs.Drive = importer
		}
	}

	return svcs, nil
}

func openMetadataStore(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (store.MetadataStore, error) {
	switch cfg.StoreBackend {
	case "badger":
		log.Printf("Using badger metadata store at %s", cfg.BadgerDir)
		return store.NewBadgerStore(cfg.BadgerDir)
	case "firestore":
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("firestore client: %w", err)
		}
		log.Printf("Using firestore metadata store (collection %s)", cfg.FirestoreCollection)
		return store.NewFirestoreStore(client, cfg.FirestoreCollection), nil
	default:
		log.Printf("Using JSON metadata store at %s", cfg.MetadataFile)
		return store.NewFileStore(cfg.MetadataFile)
	}
}

func openContentStore(ctx context.Context, cfg *config.Config, opts []option.ClientOption) (content.Store, func() error, error) {
	switch cfg.ContentBackend {
	case "gcs":
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("storage client: %w", err)
		}
		log.Printf("Using GCS content store (bucket %s)", cfg.GCSBucketName)
		return content.NewGCSStore(client, cfg.GCSBucketName, cfg.UploadFolder+"/"), client.Close, nil
	case "minio":
		s, err := content.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using MinIO content store at %s (bucket %s)", cfg.MinioEndpoint, cfg.MinioBucket)
		return s, nil, nil
	default:
		s, err := content.NewLocalStore(cfg.UploadFolder)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using local content store at %s", cfg.UploadFolder)
		return s, nil, nil
	}
}

func newDriveImporter(ctx context.Context, cfg *config.Config, opts []option.ClientOption, gallery *services.GalleryService) (*services.DriveImporter, error) {
	if cfg.GoogleAPIKey != "" {
		opts = []option.ClientOption{option.WithAPIKey(cfg.GoogleAPIKey)}
	}

	driveClient, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive client: %w", err)
	}

	return services.NewDriveImporter(services.NewDriveClient(driveClient), gallery, cfg.GoogleDriveFolderID), nil
}

// CreateHandler creates an HTTP handler with all middleware applied
func CreateHandler(svcs *Services, cfg *config.Config) (http.Handler, error) {
	h, err := handlers.New(svcs.Gallery, cfg.MaxUploadSize)
	if err != nil {
		return nil, err
	}

	var uploadGuards []func(http.Handler) http.Handler
	if cfg.UploadRateLimit > 0 {
		limiter := middleware.NewRateLimiter(rate.Limit(cfg.UploadRateLimit), max(cfg.UploadRateBurst, 1))
		uploadGuards = append(uploadGuards, limiter.Limit)
	}
	uploadGuards = append(uploadGuards, middleware.APIKeyAuth(cfg.APIKeys))

	mux := router.Setup(h, uploadGuards...)

	// Apply global middleware
	wrappedHandler := middleware.Logger(mux)
	wrappedHandler = middleware.RequestID(wrappedHandler)
	wrappedHandler = middleware.CORS(wrappedHandler, cfg.AllowedOrigins)

	return wrappedHandler, nil
}

// StartDriveImport runs the Drive importer in the background, polling at
// interval. Returns a cancel function to stop it gracefully.
func StartDriveImport(ctx context.Context, importer *services.DriveImporter, interval time.Duration) context.CancelFunc {
	if importer == nil {
		log.Println("Cannot start Drive import: importer is nil")
		return func() {} // Return no-op cancel function
	}

	if interval <= 0 {
		log.Printf("Drive import polling disabled (interval %v)", interval)
		return func() {} // Return no-op cancel function
	}

	driveCtx, cancel := context.WithCancel(ctx)

	go func() {
		if err := importer.Watch(driveCtx, interval); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Drive watch error: %v", err)
		}
	}()

	return cancel
}
