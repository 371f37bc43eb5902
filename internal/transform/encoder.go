package transform

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DefaultFormat  = "jpeg"
	DefaultQuality = 0.92
)

type encoding struct {
	format      imaging.Format
	name        string
	contentType string
	lossy       bool
}

var encodings = map[string]encoding{
	"jpeg": {imaging.JPEG, "jpeg", "image/jpeg", true},
	"jpg":  {imaging.JPEG, "jpeg", "image/jpeg", true},
	"png":  {imaging.PNG, "png", "image/png", false},
	"gif":  {imaging.GIF, "gif", "image/gif", false},
	"bmp":  {imaging.BMP, "bmp", "image/bmp", false},
	"tiff": {imaging.TIFF, "tiff", "image/tiff", false},
	"tif":  {imaging.TIFF, "tiff", "image/tiff", false},
}

// NormalizeFormat returns the canonical name of a supported output format.
func NormalizeFormat(format string) (string, error) {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if f == "" {
		return DefaultFormat, nil
	}
	enc, ok := encodings[f]
	if !ok {
		return "", fmt.Errorf("%w: unsupported output format %q", ErrEncoding, format)
	}
	return enc.name, nil
}

// ContentType returns the MIME type for a supported format name.
func ContentType(format string) string {
	if enc, ok := encodings[strings.ToLower(format)]; ok {
		return enc.contentType
	}
	return "application/octet-stream"
}

// Extension returns the conventional file extension, with the dot, for a
// supported format name.
func Extension(format string) string {
	name, err := NormalizeFormat(format)
	if err != nil {
		return ""
	}
	if name == "jpeg" {
		return ".jpg"
	}
	return "." + name
}

// Encode serializes img. Quality is in (0, 1]; zero selects DefaultQuality and
// is ignored by lossless formats.
func Encode(img image.Image, format string, quality float64) (*OutputImage, error) {
	name, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if err := checkQuality(quality); err != nil {
		return nil, err
	}
	if quality == 0 {
		quality = DefaultQuality
	}

	enc := encodings[name]
	var opts []imaging.EncodeOption
	if enc.lossy {
		opts = append(opts, imaging.JPEGQuality(jpegQuality(quality)))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, enc.format, opts...); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncoding, name, err)
	}

	b := img.Bounds()
	return &OutputImage{
		Data:        buf.Bytes(),
		Format:      name,
		ContentType: enc.contentType,
		Width:       b.Dx(),
		Height:      b.Dy(),
	}, nil
}

func checkQuality(q float64) error {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return fmt.Errorf("%w: quality %v outside [0, 1]", ErrEncoding, q)
	}
	return nil
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
