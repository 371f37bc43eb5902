// Package source turns user supplied image references into transform.Source
// values: data URIs, http(s) URLs, object storage keys, local files, stdin
// and in-memory bytes.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/logger"
	"github.com/abdul-hamid-achik/imgedit/internal/metrics"
	"github.com/abdul-hamid-achik/imgedit/internal/tracing"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel/attribute"
	_ "golang.org/x/image/webp"
)

var (
	ErrTooLarge          = errors.New("source: exceeds size limit")
	ErrDimensionTooLarge = errors.New("source: exceeds dimension limit")
	ErrUnsupported       = errors.New("source: unsupported reference")
)

type Kind string

const (
	KindData   Kind = "data"
	KindHTTP   Kind = "http"
	KindObject Kind = "object"
	KindFile   Kind = "file"
	KindStdin  Kind = "stdin"
	KindBytes  Kind = "bytes"
)

type Options struct {
	MaxBytes     int64
	MaxDimension int
	AutoOrient   bool
	FetchTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxBytes:     50 * 1024 * 1024,
		MaxDimension: 16384,
		AutoOrient:   true,
		FetchTimeout: 30 * time.Second,
	}
}

type openFunc func(ctx context.Context) (io.ReadCloser, error)

// encoded is a Source whose pixels come from an encoded byte stream.
type encoded struct {
	kind Kind
	ref  string
	open openFunc
	opts Options
}

var _ transform.Source = (*encoded)(nil)

func (s *encoded) String() string {
	return string(s.kind) + ":" + s.ref
}

func (s *encoded) Kind() Kind {
	return s.kind
}

func (s *encoded) Load(ctx context.Context) (*transform.SourceImage, error) {
	ctx, span := tracing.StartSpan(ctx, "source.load")
	defer span.End()
	span.SetAttributes(
		attribute.String("source.kind", string(s.kind)),
		attribute.String("source.ref", s.ref),
	)

	log := logger.FromContext(ctx)
	start := time.Now()

	data, err := s.read(ctx)
	if err != nil {
		metrics.RecordSourceLoad(string(s.kind), "error", 0)
		tracing.RecordError(ctx, err)
		return nil, err
	}

	img, err := Decode(data, s.opts)
	if err != nil {
		metrics.RecordSourceLoad(string(s.kind), "error", 0)
		tracing.RecordError(ctx, err)
		return nil, err
	}

	metrics.RecordSourceLoad(string(s.kind), "success", int64(len(data)))
	log.Debug("source loaded",
		"kind", s.kind,
		"format", img.Format,
		"width", img.Width(),
		"height", img.Height(),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return img, nil
}

func (s *encoded) read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := s.open(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, transform.ErrSourceLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", transform.ErrSourceLoad, s, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := readLimited(rc, s.opts.MaxBytes)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", transform.ErrSourceLoad, s, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty input", transform.ErrSourceLoad, s)
	}
	return data, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}

// Decode reads the header first so oversized images are rejected before any
// pixel buffer is allocated.
func Decode(data []byte, opts Options) (*transform.SourceImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unrecognised image data: %v", transform.ErrSourceLoad, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: image has empty dimensions %dx%d", transform.ErrSourceLoad, cfg.Width, cfg.Height)
	}
	if opts.MaxDimension > 0 && (cfg.Width > opts.MaxDimension || cfg.Height > opts.MaxDimension) {
		return nil, fmt.Errorf("%w: %w: %dx%d exceeds %d", transform.ErrSourceLoad, ErrDimensionTooLarge,
			cfg.Width, cfg.Height, opts.MaxDimension)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(opts.AutoOrient))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", transform.ErrSourceLoad, format, err)
	}

	return &transform.SourceImage{Image: img, Format: format}, nil
}

// Bytes wraps already encoded image data.
func Bytes(data []byte, opts Options) transform.Source {
	return &encoded{
		kind: KindBytes,
		ref:  fmt.Sprintf("%d bytes", len(data)),
		opts: opts,
		open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
