package transform

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"math"
	"testing"
)

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "jpeg", false},
		{"jpeg", "jpeg", false},
		{"JPG", "jpeg", false},
		{".png", "png", false},
		{" tif ", "tiff", false},
		{"gif", "gif", false},
		{"bmp", "bmp", false},
		{"webp", "", true},
		{"heic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrEncoding) {
				t.Errorf("error %v should wrap ErrEncoding", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContentTypeAndExtension(t *testing.T) {
	tests := []struct {
		format, contentType, ext string
	}{
		{"jpeg", "image/jpeg", ".jpg"},
		{"png", "image/png", ".png"},
		{"tiff", "image/tiff", ".tiff"},
		{"unknown", "application/octet-stream", ""},
	}

	for _, tt := range tests {
		if got := ContentType(tt.format); got != tt.contentType {
			t.Errorf("ContentType(%q) = %q, want %q", tt.format, got, tt.contentType)
		}
		if got := Extension(tt.format); got != tt.ext {
			t.Errorf("Extension(%q) = %q, want %q", tt.format, got, tt.ext)
		}
	}
}

func TestEncode(t *testing.T) {
	img := gradient(16, 9)

	for _, format := range []string{"jpeg", "png", "gif", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			out, err := Encode(img, format, 0)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if out.Format != format {
				t.Errorf("Format = %q, want %q", out.Format, format)
			}
			if out.Width != 16 || out.Height != 9 {
				t.Errorf("size = %dx%d, want 16x9", out.Width, out.Height)
			}
			if out.Size() == 0 {
				t.Error("Encode() produced no bytes")
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(out.Data))
			if err != nil {
				t.Fatalf("DecodeConfig() error = %v", err)
			}
			if cfg.Width != 16 || cfg.Height != 9 {
				t.Errorf("decoded size = %dx%d, want 16x9", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestEncode_PNGIsLossless(t *testing.T) {
	img := gradient(8, 8)
	out, err := Encode(img, "png", 0.1)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			r1, g1, b1, a1 := decoded.At(x, y).RGBA()
			r2, g2, b2, a2 := img.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestEncode_QualityAffectsJPEG(t *testing.T) {
	img := gradient(64, 64)

	low, err := Encode(img, "jpeg", 0.1)
	if err != nil {
		t.Fatal(err)
	}
	high, err := Encode(img, "jpeg", 1)
	if err != nil {
		t.Fatal(err)
	}
	if low.Size() >= high.Size() {
		t.Errorf("quality 0.1 size %d should be below quality 1 size %d", low.Size(), high.Size())
	}
	if _, err := jpeg.Decode(bytes.NewReader(low.Data)); err != nil {
		t.Errorf("low quality output does not decode: %v", err)
	}
}

func TestEncode_Errors(t *testing.T) {
	img := gradient(2, 2)
	tests := []struct {
		name    string
		format  string
		quality float64
	}{
		{"unknown format", "heic", 0.5},
		{"negative quality", "jpeg", -0.1},
		{"quality above one", "jpeg", 1.5},
		{"nan quality", "jpeg", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(img, tt.format, tt.quality)
			if !errors.Is(err, ErrEncoding) {
				t.Errorf("Encode() error = %v, want ErrEncoding", err)
			}
			if out != nil {
				t.Error("Encode() returned output alongside an error")
			}
		})
	}
}

func TestJPEGQuality(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.92, 92},
		{1, 100},
		{0.001, 1},
		{0.555, 56},
	}

	for _, tt := range tests {
		if got := jpegQuality(tt.in); got != tt.want {
			t.Errorf("jpegQuality(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
