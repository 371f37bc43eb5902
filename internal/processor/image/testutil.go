package image

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

// createTestImage creates a test image with a gradient pattern.
// The gradient makes it easy to verify transformations visually.
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8(255 * x / width)
			g := uint8(255 * y / height)
			img.Set(x, y, color.NRGBA{R: r, G: g, B: 128, A: 255})
		}
	}

	return img
}

// createSolidColorImage creates a test image with a solid color.
func createSolidColorImage(width, height int, c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	return img
}

// pngSource wraps a PNG-encoded copy of img so the decode path is exercised.
type pngSource struct {
	data []byte
}

func newPNGSource(img image.Image) transform.Source {
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return &pngSource{data: buf.Bytes()}
}

func (s *pngSource) Load(ctx context.Context) (*transform.SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(s.data))
	if err != nil {
		return nil, err
	}
	return &transform.SourceImage{Image: img, Format: format}, nil
}

// failingSource always fails to load.
type failingSource struct{}

func (failingSource) Load(context.Context) (*transform.SourceImage, error) {
	return nil, errors.New("disk on fire")
}

// decodeResult decodes processor output and returns it with its format.
func decodeResult(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}

// readerToBytes reads all bytes from a reader.
func readerToBytes(r io.Reader) []byte {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.Bytes()
}
