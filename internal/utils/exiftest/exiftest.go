// Package exiftest builds small image fixtures for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
)

// JPEGWithDate returns a decodable 4x4 JPEG whose APP1 segment carries a
// big-endian TIFF with an Exif sub-IFD holding DateTimeOriginal.
func JPEGWithDate(dateTimeOriginal string) []byte {
	plain := PlainJPEG(4, 4)

	var out bytes.Buffer
	out.Write(plain[:2]) // SOI
	out.Write(exifSegment(dateTimeOriginal))
	out.Write(plain[2:])
	return out.Bytes()
}

// APP1Only returns SOI, the EXIF APP1 segment and EOI with no image data,
// which no decoder accepts as an image.
func APP1Only(dateTimeOriginal string) []byte {
	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8})
	out.Write(exifSegment(dateTimeOriginal))
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

func exifSegment(dateTimeOriginal string) []byte {
	value := append([]byte(dateTimeOriginal), 0)

	var tiff bytes.Buffer
	write := func(v any) { _ = binary.Write(&tiff, binary.BigEndian, v) }

	// Header: byte order, magic 42, offset of IFD0.
	tiff.WriteString("MM")
	write(uint16(42))
	write(uint32(8))

	// IFD0 at 8: a single ExifIFDPointer entry.
	const exifIFDOffset = 8 + 2 + 12 + 4
	write(uint16(1))
	write(uint16(0x8769)) // ExifIFDPointer
	write(uint16(4))      // LONG
	write(uint32(1))
	write(uint32(exifIFDOffset))
	write(uint32(0))

	// Exif IFD: a single DateTimeOriginal entry pointing past the IFD.
	const valueOffset = exifIFDOffset + 2 + 12 + 4
	write(uint16(1))
	write(uint16(0x9003)) // DateTimeOriginal
	write(uint16(2))      // ASCII
	write(uint32(len(value)))
	write(uint32(valueOffset))
	write(uint32(0))
	tiff.Write(value)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	return out.Bytes()
}

// PlainJPEG encodes a w x h gradient with no metadata.
func PlainJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 60), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}
