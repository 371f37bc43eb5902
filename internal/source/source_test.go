package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/abdul-hamid-achik/imgedit/internal/storage"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
	"github.com/stretchr/testify/mock"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.MaxBytes = 1 << 20
	opts.MaxDimension = 1024
	return opts
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		ref  string
		want Kind
	}{
		{"-", KindStdin},
		{"data:image/png;base64,AAAA", KindData},
		{"DATA:image/png;base64,AAAA", KindData},
		{"https://example.com/a.png", KindHTTP},
		{"http://example.com/a.png", KindHTTP},
		{"s3://photos/a.png", KindObject},
		{"object://a.png", KindObject},
		{"file:///tmp/a.png", KindFile},
		{"photos/a.png", KindFile},
	}

	for _, tt := range tests {
		if got := KindOf(tt.ref); got != tt.want {
			t.Errorf("KindOf(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestParseDataURI(t *testing.T) {
	payload := []byte("hello")
	tests := []struct {
		name      string
		ref       string
		want      []byte
		wantType  string
		wantError bool
	}{
		{"base64", "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload), payload, "image/png", false},
		{"base64 without padding", "data:image/png;base64," + base64.RawStdEncoding.EncodeToString(payload), payload, "image/png", false},
		{"url safe base64", "data:image/png;base64," + base64.RawURLEncoding.EncodeToString([]byte{0xfb, 0xff}), []byte{0xfb, 0xff}, "image/png", false},
		{"percent encoded", "data:,hello%20world", []byte("hello world"), "text/plain", false},
		{"missing comma", "data:image/png;base64", nil, "", true},
		{"bad base64", "data:image/png;base64,@@@", nil, "", true},
		{"not a data uri", "https://example.com", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mediaType, err := ParseDataURI(tt.ref)
			if (err != nil) != tt.wantError {
				t.Fatalf("ParseDataURI() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				if !errors.Is(err, transform.ErrSourceLoad) {
					t.Errorf("ParseDataURI() error = %v, want ErrSourceLoad", err)
				}
				return
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ParseDataURI() data = %q, want %q", got, tt.want)
			}
			if mediaType != tt.wantType {
				t.Errorf("ParseDataURI() media type = %q, want %q", mediaType, tt.wantType)
			}
		})
	}
}

func TestResolver_DataURI(t *testing.T) {
	data := pngBytes(t, 12, 8)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)

	src, err := NewResolver(testOptions(), nil).Resolve(ref)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	img, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.Width() != 12 || img.Height() != 8 {
		t.Errorf("Load() size = %dx%d, want 12x8", img.Width(), img.Height())
	}
	if img.Format != "png" {
		t.Errorf("Load() format = %q, want png", img.Format)
	}
}

func TestResolver_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.png")
	if err := os.WriteFile(path, pngBytes(t, 5, 7), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewResolver(testOptions(), nil)

	for _, ref := range []string{path, "file://" + path} {
		t.Run(ref, func(t *testing.T) {
			src, err := r.Resolve(ref)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			img, err := src.Load(context.Background())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if img.Width() != 5 || img.Height() != 7 {
				t.Errorf("Load() size = %dx%d, want 5x7", img.Width(), img.Height())
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		src, err := r.Resolve(filepath.Join(dir, "missing.png"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if _, err := src.Load(context.Background()); !errors.Is(err, transform.ErrSourceLoad) {
			t.Errorf("Load() error = %v, want ErrSourceLoad", err)
		}
	})

	t.Run("directory", func(t *testing.T) {
		src, _ := r.Resolve(dir)
		if _, err := src.Load(context.Background()); !errors.Is(err, transform.ErrSourceLoad) {
			t.Errorf("Load() error = %v, want ErrSourceLoad", err)
		}
	})
}

func TestResolver_HTTP(t *testing.T) {
	data := pngBytes(t, 9, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/text":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := NewResolver(testOptions(), nil).WithHTTPClient(srv.Client())

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"image", "/ok.png", false},
		{"not found", "/missing.png", true},
		{"not an image", "/text", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := r.Resolve(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			img, err := src.Load(context.Background())
			if tt.wantErr {
				if !errors.Is(err, transform.ErrSourceLoad) {
					t.Errorf("Load() error = %v, want ErrSourceLoad", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if img.Width() != 9 || img.Height() != 4 {
				t.Errorf("Load() size = %dx%d, want 9x4", img.Width(), img.Height())
			}
		})
	}
}

func TestResolver_HTTP_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := NewResolver(testOptions(), nil).WithHTTPClient(srv.Client())

	for i := 0; i < 5; i++ {
		src, err := r.Resolve(fmt.Sprintf("%s/%d.png", srv.URL, i))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		_, err = src.Load(context.Background())
		if !errors.Is(err, transform.ErrSourceLoad) {
			t.Fatalf("Load() error = %v, want ErrSourceLoad", err)
		}
		if i >= 3 && !errors.Is(err, ErrHostUnavailable) {
			t.Errorf("Load() #%d error = %v, want ErrHostUnavailable", i, err)
		}
	}

	if got := hits.Load(); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}

func TestResolver_HTTP_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	src, err := NewResolver(testOptions(), nil).WithHTTPClient(srv.Client()).Resolve(srv.URL + "/slow.png")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestResolver_Object(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.Put("photos/cat.png", pngBytes(t, 3, 3), "image/png")

	r := NewResolver(testOptions(), store)

	for _, ref := range []string{"s3://photos/cat.png", "object://photos/cat.png"} {
		src, err := r.Resolve(ref)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", ref, err)
		}
		img, err := src.Load(context.Background())
		if err != nil {
			t.Fatalf("Load(%q) error = %v", ref, err)
		}
		if img.Width() != 3 {
			t.Errorf("Load(%q) width = %d, want 3", ref, img.Width())
		}
	}

	src, _ := r.Resolve("s3://photos/dog.png")
	_, err := src.Load(context.Background())
	if !errors.Is(err, transform.ErrSourceLoad) || !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Load() missing error = %v, want ErrSourceLoad wrapping ErrNotFound", err)
	}
}

func TestResolver_Object_Mock(t *testing.T) {
	data := pngBytes(t, 2, 2)
	store := new(storage.MockStorage)
	store.On("Stat", mock.Anything, "a/b.png").
		Return(storage.ObjectInfo{Key: "a/b.png", Size: int64(len(data)), ContentType: "image/png"}, nil).Once()
	store.On("Download", mock.Anything, "a/b.png").
		Return(io.NopCloser(bytes.NewReader(data)), nil).Once()

	src, err := NewResolver(testOptions(), store).Resolve("object:///a/b.png")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	store.AssertExpectations(t)
}

func TestResolver_Object_TooLargeSkipsDownload(t *testing.T) {
	store := new(storage.MockStorage)
	store.On("Stat", mock.Anything, "huge.png").
		Return(storage.ObjectInfo{Key: "huge.png", Size: 2 << 20}, nil).Once()

	opts := testOptions()
	opts.MaxBytes = 1 << 20
	src, err := NewResolver(opts, store).Resolve("s3://huge.png")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	_, err = src.Load(context.Background())
	if !errors.Is(err, ErrTooLarge) || !errors.Is(err, transform.ErrSourceLoad) {
		t.Errorf("Load() error = %v, want ErrTooLarge wrapped in ErrSourceLoad", err)
	}
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Download", mock.Anything, "huge.png")
}

func TestResolver_File_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	if err := os.WriteFile(path, pngBytes(t, 40, 20), 0o644); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.MaxBytes = 10
	src, err := NewResolver(opts, nil).Resolve(path)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if _, err := src.Load(context.Background()); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Load() error = %v, want ErrTooLarge", err)
	}
}

func TestResolver_Object_NoStore(t *testing.T) {
	_, err := NewResolver(testOptions(), nil).Resolve("s3://a.png")
	if !errors.Is(err, transform.ErrSourceLoad) {
		t.Errorf("Resolve() error = %v, want ErrSourceLoad", err)
	}
}

func TestResolver_Stdin(t *testing.T) {
	r := NewResolver(testOptions(), nil).WithStdin(bytes.NewReader(pngBytes(t, 4, 6)))

	src, err := r.Resolve("-")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	img, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if img.Height() != 6 {
		t.Errorf("Load() height = %d, want 6", img.Height())
	}
}

func TestResolver_Unsupported(t *testing.T) {
	r := NewResolver(testOptions(), nil)
	for _, ref := range []string{"", "ftp://example.com/a.png"} {
		if _, err := r.Resolve(ref); !errors.Is(err, ErrUnsupported) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnsupported", ref, err)
		}
	}
}

func TestLoad_Limits(t *testing.T) {
	data := pngBytes(t, 40, 20)

	t.Run("max bytes", func(t *testing.T) {
		opts := testOptions()
		opts.MaxBytes = 10
		_, err := Bytes(data, opts).Load(context.Background())
		if !errors.Is(err, ErrTooLarge) || !errors.Is(err, transform.ErrSourceLoad) {
			t.Errorf("Load() error = %v, want ErrTooLarge wrapped in ErrSourceLoad", err)
		}
	})

	t.Run("max dimension", func(t *testing.T) {
		opts := testOptions()
		opts.MaxDimension = 32
		_, err := Bytes(data, opts).Load(context.Background())
		if !errors.Is(err, ErrDimensionTooLarge) || !errors.Is(err, transform.ErrSourceLoad) {
			t.Errorf("Load() error = %v, want ErrDimensionTooLarge wrapped in ErrSourceLoad", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Bytes(nil, testOptions()).Load(context.Background())
		if !errors.Is(err, transform.ErrSourceLoad) {
			t.Errorf("Load() error = %v, want ErrSourceLoad", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Bytes([]byte("this is not an image"), testOptions()).Load(context.Background())
		if !errors.Is(err, transform.ErrSourceLoad) {
			t.Errorf("Load() error = %v, want ErrSourceLoad", err)
		}
	})
}

func TestLoad_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Bytes(pngBytes(t, 2, 2), testOptions()).Load(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}
