package utils

import (
	"bytes"
	"fmt"
	"image"

	"github.com/adrium/goheif"
	"github.com/disintegration/imaging"
)

// MakeThumbnail decodes an image and returns a JPEG that fits within
// size x size, preserving aspect ratio and EXIF orientation.
func MakeThumbnail(data []byte, fileName string, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %d", size)
	}

	img, err := decodeImage(data, fileName)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeImage(data []byte, fileName string) (image.Image, error) {
	if IsHeifLike("", fileName) || looksLikeHeif(data) {
		img, err := goheif.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode HEIC: %w", err)
		}
		return ApplyOrientation(img, readOrientation(data)), nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
