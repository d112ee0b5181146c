package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"

	"photo-album/internal/models"
	"photo-album/internal/utils"
)

// DriveFiles is the part of DriveClient the importer needs.
type DriveFiles interface {
	ListFilesInFolder(ctx context.Context, folderID string) ([]*drive.File, error)
	DownloadBytes(ctx context.Context, id string) ([]byte, error)
}

// DriveImporter copies images from a Drive folder into the gallery through
// the same path as a browser upload.
type DriveImporter struct {
	files    DriveFiles
	gallery  *GalleryService
	folderID string
	logger   *log.Logger
}

func NewDriveImporter(files DriveFiles, gallery *GalleryService, folderID string) *DriveImporter {
	return &DriveImporter{
		files:    files,
		gallery:  gallery,
		folderID: folderID,
		logger:   log.New(os.Stdout, "[DriveImport] ", log.LstdFlags),
	}
}

// ImportStats counts what one import pass did.
type ImportStats struct {
	Imported int
	Skipped  int
	Errors   int
}

func isImage(file *drive.File) bool {
	return strings.HasPrefix(file.MimeType, "image/")
}

// ImportFile imports a single Drive file. Non-images and identifiers the
// gallery already holds are skipped and reported as imported=false.
func (di *DriveImporter) ImportFile(ctx context.Context, file *drive.File) (bool, error) {
	if file == nil {
		return false, nil
	}
	if !isImage(file) {
		di.logger.Printf("Skipping non-image file: %s (%s)", file.Name, file.MimeType)
		return false, nil
	}

	if _, ok := utils.CleanIdentifier(file.Name); !ok {
		di.logger.Printf("Skipping file with unusable name: %q", file.Name)
		return false, nil
	}

	exists, err := di.gallery.Holds(ctx, file.Name, file.MimeType)
	if err != nil {
		return false, fmt.Errorf("check existing %s: %w", file.Name, err)
	}
	if exists {
		return false, nil
	}

	di.logger.Printf("Downloading %s (%s)", file.Name, file.Id)
	data, err := di.files.DownloadBytes(ctx, file.Id)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", file.Name, err)
	}

	_, stored, err := di.gallery.Upload(ctx, models.UploadRequest{
		FileName:    file.Name,
		ContentType: file.MimeType,
		Name:        strings.TrimSuffix(file.Name, filepath.Ext(file.Name)),
		Description: file.Description,
		Data:        data,
		CaptureTime: driveCaptureTime(file),
	})
	if err != nil {
		return false, err
	}
	return stored, nil
}

// Drive reports the camera time it read from the file's metadata; it backs
// up EXIF that the downloaded bytes don't expose.
func driveCaptureTime(file *drive.File) string {
	if file.ImageMediaMetadata == nil || file.ImageMediaMetadata.Time == "" {
		return ""
	}
	ts, err := utils.FormatTimestamp(file.ImageMediaMetadata.Time)
	if err != nil {
		log.Printf("[DriveImport] Ignoring capture time of %s: %v", file.Name, err)
		return ""
	}
	return ts
}

// ImportFolder runs one pass over every file in the folder.
func (di *DriveImporter) ImportFolder(ctx context.Context) (ImportStats, error) {
	files, err := di.files.ListFilesInFolder(ctx, di.folderID)
	if err != nil {
		return ImportStats{}, err
	}
	return di.importFiles(ctx, files)
}

func (di *DriveImporter) importFiles(ctx context.Context, files []*drive.File) (ImportStats, error) {
	var stats ImportStats
	for _, f := range files {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		imported, err := di.ImportFile(ctx, f)
		switch {
		case err != nil:
			di.logger.Printf("Import error for %s: %v", f.Name, err)
			stats.Errors++
		case imported:
			stats.Imported++
		default:
			stats.Skipped++
		}
	}

	di.logger.Printf("Import pass complete: %d imported, %d skipped, %d errors", stats.Imported, stats.Skipped, stats.Errors)
	if stats.Errors > 0 {
		return stats, fmt.Errorf("import completed with %d errors", stats.Errors)
	}
	return stats, nil
}

// Watch imports the whole folder once, then polls at interval for files
// created since the previous poll. It returns when ctx is cancelled.
func (di *DriveImporter) Watch(ctx context.Context, interval time.Duration) error {
	di.logger.Printf("Watching folder %s (polling every %v)", di.folderID, interval)

	lastCheck := time.Now()
	if _, err := di.ImportFolder(ctx); err != nil {
		di.logger.Printf("Initial import: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			di.logger.Println("Watch stopped by context")
			return ctx.Err()
		case <-ticker.C:
			checkStarted := time.Now()
			files, err := di.files.ListFilesInFolder(ctx, di.folderID)
			if err != nil {
				di.logger.Printf("Error listing files: %v", err)
				continue
			}

			var fresh []*drive.File
			for _, file := range files {
				created, err := time.Parse(time.RFC3339, file.CreatedTime)
				if err != nil {
					di.logger.Printf("Failed to parse creation time for %s: %v", file.Name, err)
					continue
				}
				if created.After(lastCheck) {
					fresh = append(fresh, file)
				}
			}

			if len(fresh) > 0 {
				if _, err := di.importFiles(ctx, fresh); err != nil {
					di.logger.Printf("Poll import: %v", err)
				}
			}
			lastCheck = checkStarted
		}
	}
}
