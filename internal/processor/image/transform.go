package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/imgedit/internal/presets"
	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

var _ processor.Processor = (*TransformProcessor)(nil)

// TransformProcessor crops, rotates and mirrors a source and re-encodes it.
type TransformProcessor struct {
	config *processor.Config
}

func NewTransformProcessor(cfg *processor.Config) *TransformProcessor {
	if cfg == nil {
		cfg = processor.DefaultConfig()
	}
	return &TransformProcessor{config: cfg}
}

func (p *TransformProcessor) Name() string {
	return "transform"
}

func (p *TransformProcessor) SupportedTypes() []string {
	return supportedTypes
}

func (p *TransformProcessor) Process(ctx context.Context, opts *processor.Options, src transform.Source) (*processor.Result, error) {
	if opts == nil {
		opts = &processor.Options{}
	}

	loaded, err := loadSource(ctx, src, p.config.MaxDimension)
	if err != nil {
		return nil, err
	}

	params := opts.Params()
	geom := transform.Resolve(loaded.Width(), loaded.Height(), params.RotationDegrees)

	crop, err := resolveCrop(opts, geom)
	if err != nil {
		return nil, err
	}

	background := opts.Background
	if background == nil {
		background = p.config.Background
	}
	engine := transform.New(&transform.Config{
		Format:     p.config.Format,
		Quality:    p.config.Quality,
		Background: background,
	})

	out, err := engine.Transform(ctx, transform.FromImage(loaded.Image), transform.Request{
		Crop:    crop,
		Params:  params,
		Format:  opts.Format,
		Quality: opts.Quality,
	})
	if err != nil {
		return nil, err
	}

	quality := opts.Quality
	if quality == 0 {
		quality = p.config.Quality
	}

	return &processor.Result{
		Data:        bytes.NewReader(out.Data),
		ContentType: out.ContentType,
		Filename:    fmt.Sprintf("crop_%dx%d%s", out.Width, out.Height, transform.Extension(out.Format)),
		Size:        out.Size(),
		Metadata: processor.ResultMetadata{
			Width:          out.Width,
			Height:         out.Height,
			Format:         out.Format,
			Quality:        quality,
			SourceWidth:    loaded.Width(),
			SourceHeight:   loaded.Height(),
			SourceFormat:   loaded.Format,
			BoundingWidth:  geom.Width,
			BoundingHeight: geom.Height,
			Rotation:       geom.Degrees,
			Crop:           crop.String(),
		},
	}, nil
}

// resolveCrop picks the explicit crop, else the centred crop for the aspect
// preset, else the whole bounding box.
func resolveCrop(opts *processor.Options, geom transform.Geometry) (transform.CropRegion, error) {
	if opts.Crop != nil {
		return *opts.Crop, nil
	}
	if opts.Aspect == "" {
		return transform.FullCrop(geom), nil
	}
	preset, err := presets.Parse(opts.Aspect)
	if err != nil {
		return transform.CropRegion{}, fmt.Errorf("%w: %v", processor.ErrInvalidConfig, err)
	}
	return presets.CenteredCrop(geom, preset), nil
}

func loadSource(ctx context.Context, src transform.Source, maxDimension int) (*transform.SourceImage, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source", transform.ErrSourceLoad)
	}
	loaded, err := src.Load(ctx)
	if err != nil {
		if errors.Is(err, transform.ErrSourceLoad) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", transform.ErrSourceLoad, err)
	}
	if loaded == nil || loaded.Image == nil || loaded.Width() <= 0 || loaded.Height() <= 0 {
		return nil, fmt.Errorf("%w: source has no pixels", transform.ErrSourceLoad)
	}
	if maxDimension > 0 && (loaded.Width() > maxDimension || loaded.Height() > maxDimension) {
		return nil, fmt.Errorf("%w: %dx%d exceeds maximum dimension %d",
			transform.ErrSourceLoad, loaded.Width(), loaded.Height(), maxDimension)
	}
	return loaded, nil
}

var supportedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}
