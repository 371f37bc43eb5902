package transform

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/logger"
	"github.com/abdul-hamid-achik/imgedit/internal/metrics"
	"github.com/abdul-hamid-achik/imgedit/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
)

type Config struct {
	Format     string
	Quality    float64
	Background color.Color
}

func DefaultConfig() *Config {
	return &Config{
		Format:  DefaultFormat,
		Quality: DefaultQuality,
	}
}

// Engine runs load, geometry, composite and encode for one request at a time
// per call. It holds only configuration and is safe for concurrent use.
type Engine struct {
	config *Config
}

func New(cfg *Config) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Engine{config: cfg}
}

// Transform loads src and produces the encoded crop described by req. It
// returns either an output or an error, never both. When ctx is cancelled the
// context error is returned and any work in progress is discarded.
func (e *Engine) Transform(ctx context.Context, src Source, req Request) (out *OutputImage, err error) {
	ctx, span := tracing.StartSpan(ctx, "transform")
	defer span.End()

	log := logger.FromContext(ctx)
	start := time.Now()

	defer func() {
		metrics.RecordTransform(statusLabel(err), time.Since(start).Seconds())
		if err != nil {
			tracing.RecordError(ctx, err)
			log.Debug("transform failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		}
	}()

	format := req.Format
	if format == "" {
		format = e.config.Format
	}
	format, err = NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	quality := req.Quality
	if quality == 0 {
		quality = e.config.Quality
	}
	if err = checkQuality(quality); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("transform.rotation", req.Params.RotationDegrees),
		attribute.Bool("transform.flip_horizontal", req.Params.FlipHorizontal),
		attribute.Bool("transform.flip_vertical", req.Params.FlipVertical),
		attribute.String("transform.crop", req.Crop.String()),
		attribute.String("transform.format", format),
	)

	loaded, err := e.load(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	geom := Resolve(loaded.Width(), loaded.Height(), req.Params.RotationDegrees)
	log.Debug("geometry resolved",
		"source_width", loaded.Width(),
		"source_height", loaded.Height(),
		"bounding_width", geom.Width,
		"bounding_height", geom.Height,
		"degrees", geom.Degrees,
	)

	stageStart := time.Now()
	_, compositeSpan := tracing.StartSpan(ctx, "transform.composite")
	pixels, err := Composite(loaded.Image, geom, req.Params, req.Crop, e.config.Background)
	compositeSpan.End()
	metrics.RecordTransformStage("composite", time.Since(stageStart).Seconds())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stageStart = time.Now()
	_, encodeSpan := tracing.StartSpan(ctx, "transform.encode")
	out, err = Encode(pixels, format, quality)
	encodeSpan.End()
	metrics.RecordTransformStage("encode", time.Since(stageStart).Seconds())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metrics.RecordOutputBytes(out.Format, out.Size())
	log.Debug("transform completed",
		"width", out.Width,
		"height", out.Height,
		"format", out.Format,
		"size", out.Size(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// TransformAsync runs Transform in its own goroutine. The returned channel
// yields exactly one Result and is then closed.
func (e *Engine) TransformAsync(ctx context.Context, src Source, req Request) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		out, err := e.Transform(ctx, src, req)
		results <- Result{Output: out, Err: err}
	}()
	return results
}

func (e *Engine) load(ctx context.Context, src Source) (*SourceImage, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source", ErrSourceLoad)
	}

	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "transform.load")
	defer span.End()

	loaded, err := src.Load(ctx)
	metrics.RecordTransformStage("load", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, ErrSourceLoad) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSourceLoad, err)
	}
	if loaded == nil || loaded.Image == nil {
		return nil, fmt.Errorf("%w: source produced no pixels", ErrSourceLoad)
	}
	if loaded.Width() <= 0 || loaded.Height() <= 0 {
		return nil, fmt.Errorf("%w: source has empty dimensions %dx%d", ErrSourceLoad, loaded.Width(), loaded.Height())
	}
	return loaded, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSourceLoad):
		return "source_error"
	case errors.Is(err, ErrInvalidCropRegion):
		return "crop_error"
	case errors.Is(err, ErrEncoding):
		return "encode_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
