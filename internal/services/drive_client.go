package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const driveFileFields = "id, name, mimeType, description, size, createdTime, imageMediaMetadata(time)"

// DriveClient lists and downloads files from Google Drive, pacing calls and
// retrying rate-limited responses with exponential backoff.
type DriveClient struct {
	client     *drive.Service
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

// Creates a DriveClient allowing one Drive API call every two seconds.
func NewDriveClient(client *drive.Service) *DriveClient {
	return &DriveClient{
		client:     client,
		limiter:    rate.NewLimiter(rate.Every(2*time.Second), 1),
		maxRetries: 3,
		backoff:    5 * time.Second,
	}
}

// Reports whether err is a Drive quota or rate-limit response.
func isRateLimited(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == 403 || apiErr.Code == 429)
}

// Runs call, retrying rate-limited failures with backoff 5s, 10s, 20s...
func (d *DriveClient) withRetry(ctx context.Context, what string, call func() error) error {
	for attempt := 0; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil {
			return nil
		}
		if !isRateLimited(err) || attempt >= d.maxRetries {
			return fmt.Errorf("%s: %w", what, err)
		}

		sleep := d.backoff * time.Duration(1<<uint(attempt))
		log.Printf("[DriveClient] %s rate limited, retrying in %v", what, sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// Lists all non-trashed files in the folder, following pagination.
func (d *DriveClient) ListFilesInFolder(ctx context.Context, folderID string) ([]*drive.File, error) {
	if d.client == nil {
		return nil, fmt.Errorf("drive client is nil")
	}

	// Escape single quotes in folder ID to prevent query injection
	escapedFolderID := strings.ReplaceAll(folderID, "'", "\\'")
	query := fmt.Sprintf("'%s' in parents and trashed=false", escapedFolderID)

	var allFiles []*drive.File
	pageToken := ""
	for {
		var fileList *drive.FileList
		err := d.withRetry(ctx, "list files", func() error {
			call := d.client.Files.List().
				Context(ctx).
				Q(query).
				Fields(googleapi.Field("nextPageToken, files(" + driveFileFields + ")")).
				PageSize(1000)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}

			var err error
			fileList, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		allFiles = append(allFiles, fileList.Files...)

		if fileList.NextPageToken == "" {
			break
		}
		pageToken = fileList.NextPageToken
	}

	return allFiles, nil
}

// Downloads the file content from Google Drive.
func (d *DriveClient) DownloadBytes(ctx context.Context, id string) ([]byte, error) {
	if d.client == nil {
		return nil, fmt.Errorf("drive client is nil")
	}

	var data []byte
	err := d.withRetry(ctx, "download "+id, func() error {
		resp, err := d.client.Files.Get(id).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
