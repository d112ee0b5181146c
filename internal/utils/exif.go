package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"strings"
	"time"

	"github.com/adrium/goheif"
	"github.com/rwcarlsen/goexif/exif"

	"photo-album/internal/models"
)

// exifLayout is how cameras write DateTimeOriginal. Single-digit fields
// are accepted as well as zero-padded ones.
const exifLayout = "2006:1:2 15:4:5"

// ExtractCaptureTime returns the original capture time embedded in the image,
// formatted as "2006-01-02 15:04:05". The boolean is false when the image can't
// be decoded, carries no EXIF block, or the date field is missing or malformed.
func ExtractCaptureTime(imageData []byte) (string, bool) {
	timestamp, err := extractCaptureTime(imageData)
	if err != nil {
		log.Printf("[EXIF] No capture date: %v", err)
		return "", false
	}
	return timestamp, true
}

func extractCaptureTime(imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	// Bytes that don't open as an image carry no usable date, even if an
	// EXIF block can be found in them.
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		return "", fmt.Errorf("not a readable image: %w", err)
	}

	x, err := decodeExif(imageData)
	if err != nil {
		return "", fmt.Errorf("failed to decode EXIF: %w", err)
	}

	dateTag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return "", fmt.Errorf("no DateTimeOriginal tag: %w", err)
	}

	dateStr, err := dateTag.StringVal()
	if err != nil {
		return "", fmt.Errorf("DateTimeOriginal is not a string: %w", err)
	}

	t, err := time.Parse(exifLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return "", fmt.Errorf("failed to parse DateTimeOriginal %q: %w", dateStr, err)
	}

	return t.Format(models.DateLayout), nil
}

// Decodes EXIF from JPEG/TIFF data, falling back to the EXIF item of a HEIF container.
func decodeExif(imageData []byte) (*exif.Exif, error) {
	x, err := exif.Decode(bytes.NewReader(imageData))
	if err == nil {
		return x, nil
	}

	if !looksLikeHeif(imageData) {
		return nil, err
	}

	raw, heifErr := goheif.ExtractExif(bytes.NewReader(imageData))
	if heifErr != nil {
		return nil, fmt.Errorf("failed to extract HEIF EXIF: %w", heifErr)
	}

	return exif.Decode(bytes.NewReader(trimToExif(raw)))
}

// HEIF EXIF items may be prefixed by a TIFF header offset; skip to the
// "Exif" marker, or failing that to the TIFF byte-order mark.
func trimToExif(raw []byte) []byte {
	for _, marker := range [][]byte{[]byte("Exif\x00\x00"), []byte("MM\x00*"), []byte("II*\x00")} {
		if i := bytes.Index(raw, marker); i >= 0 {
			return raw[i:]
		}
	}
	return raw
}

// Checks the ISO-BMFF "ftyp" box for a HEIF brand.
func looksLikeHeif(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "hevc", "hevx", "heim", "heis", "mif1", "msf1":
		return true
	}
	return false
}

// FormatTimestamp converts an EXIF or ISO 8601 timestamp to the record layout.
// Supports both ISO 8601 (2006-01-02T15:04:05Z) and EXIF format (2006:01:02 15:04:05)
func FormatTimestamp(timestamp string) (string, error) {
	var t time.Time
	var err error

	// Try multiple timestamp formats in order of likelihood
	formats := []string{
		exifLayout,
		models.DateLayout,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		t, err = time.Parse(format, strings.TrimSpace(timestamp))
		if err == nil {
			break
		}
	}

	if err != nil {
		return "", fmt.Errorf("failed to parse timestamp %q: %w", timestamp, err)
	}

	return t.Format(models.DateLayout), nil
}
