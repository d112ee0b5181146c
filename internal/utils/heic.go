package utils

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"

	"github.com/adrium/goheif"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"photo-album/internal/models"
)

// Checks if the MIME type or file name indicates a HEIC or HEIF image.
func IsHeifLike(mimeType, fileName string) bool {
	t := strings.ToLower(mimeType)
	if strings.Contains(t, "heic") || strings.Contains(t, "heif") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".heic" || ext == ".heif"
}

// Converts HEIC/HEIF image data to JPEG format with EXIF orientation applied.
func ConvertHeicToJpeg(input []byte) ([]byte, error) {
	img, err := goheif.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("failed to decode HEIC: %w", err)
	}

	oriented := ApplyOrientation(img, readOrientation(input))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, oriented, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// ConvertIfHeic rewrites a HEIC upload into a JPEG named "<base>.jpg".
// The request is left untouched when it isn't HEIC or conversion fails.
func ConvertIfHeic(req *models.UploadRequest) bool {
	if !IsHeifLike(req.ContentType, req.FileName) {
		return false
	}

	log.Printf("[HEIC] Converting to JPEG: %s", req.FileName)
	jpeg, err := ConvertHeicToJpeg(req.Data)
	if err != nil {
		log.Printf("[HEIC] Conversion failed for %s: %v", req.FileName, err)
		return false
	}

	req.FileName = JPEGName(req.FileName)
	req.ContentType = "image/jpeg"
	req.Data = jpeg
	return true
}

// JPEGName is the name a converted HEIC upload is stored under.
func JPEGName(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return fileName
	}
	return strings.TrimSuffix(fileName, ext) + ".jpg"
}

// Reads the EXIF orientation tag, returning 1 (normal) when absent.
func readOrientation(input []byte) int {
	x, err := decodeExif(input)
	if err != nil {
		return 1
	}

	orientTag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orient, err := orientTag.Int(0)
	if err != nil {
		log.Printf("[HEIC] Failed to read orientation value: %v", err)
		return 1
	}
	return orient
}

// ApplyOrientation transforms img so that it displays upright for the given
// EXIF orientation value.
// 1=normal, 2=flip-h, 3=180, 4=flip-v, 5=transpose, 6=270, 7=transverse, 8=90
func ApplyOrientation(img image.Image, orient int) image.Image {
	switch orient {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
