package services

import (
	"context"
	"fmt"
	"log"

	"photo-album/internal/models"
	"photo-album/internal/utils"
)

// ReindexOptions control which records Reindex touches.
type ReindexOptions struct {
	OnlyUnknown bool // Only records whose capture time is "Unknown"
	DryRun      bool // Report changes without writing them
}

// ReindexStats counts what a Reindex run did.
type ReindexStats struct {
	Updated   int
	Unchanged int
	Skipped   int
	Errors    int
}

// Reindex re-extracts the capture time of every stored image and rewrites
// records whose value changed. Per-record failures are counted and logged;
// only a failure to list the store aborts the run.
func (s *GalleryService) Reindex(ctx context.Context, opts ReindexOptions) (ReindexStats, error) {
	var stats ReindexStats

	records, err := s.metadata.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list records: %w", err)
	}

	for _, record := range records {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if opts.OnlyUnknown && record.OriginalDate != "" && record.OriginalDate != models.UnknownDate {
			stats.Skipped++
			continue
		}

		data, err := s.readAll(ctx, record.ID)
		if err != nil {
			log.Printf("[Reindex] Failed to read %s: %v", record.ID, err)
			stats.Errors++
			continue
		}

		originalDate, ok := utils.ExtractCaptureTime(data)
		if !ok {
			originalDate = models.UnknownDate
		}

		if originalDate == record.OriginalDate {
			stats.Unchanged++
			continue
		}

		if opts.DryRun {
			log.Printf("[Reindex] [DRY] Would update %s: %q -> %q", record.ID, record.OriginalDate, originalDate)
			stats.Updated++
			continue
		}

		updated := *record
		updated.OriginalDate = originalDate
		if err := s.metadata.Put(ctx, record.ID, &updated); err != nil {
			log.Printf("[Reindex] Failed to update %s: %v", record.ID, err)
			stats.Errors++
			continue
		}

		log.Printf("[Reindex] Updated %s: %q -> %q", record.ID, record.OriginalDate, originalDate)
		stats.Updated++
	}

	return stats, nil
}
