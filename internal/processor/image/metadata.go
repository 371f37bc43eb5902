package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

var _ processor.Processor = (*MetadataProcessor)(nil)

type MetadataProcessor struct {
	cfg *processor.Config
}

func NewMetadataProcessor(cfg *processor.Config) *MetadataProcessor {
	if cfg == nil {
		cfg = processor.DefaultConfig()
	}
	return &MetadataProcessor{cfg: cfg}
}

func (p *MetadataProcessor) Name() string {
	return "metadata"
}

func (p *MetadataProcessor) SupportedTypes() []string {
	return supportedTypes
}

type ImageMetadata struct {
	Width          int                   `json:"width"`
	Height         int                   `json:"height"`
	Format         string                `json:"format"`
	Rotation       int                   `json:"rotation"`
	BoundingWidth  int                   `json:"bounding_width"`
	BoundingHeight int                   `json:"bounding_height"`
	Crop           *transform.CropRegion `json:"crop,omitempty"`
}

// Process reports the decoded dimensions of the source and the bounding box
// it occupies at the requested rotation. With an aspect or crop set it also
// reports the region a transform would extract.
func (p *MetadataProcessor) Process(ctx context.Context, opts *processor.Options, src transform.Source) (*processor.Result, error) {
	if opts == nil {
		opts = &processor.Options{}
	}

	loaded, err := loadSource(ctx, src, p.cfg.MaxDimension)
	if err != nil {
		return nil, err
	}

	geom := transform.Resolve(loaded.Width(), loaded.Height(), opts.Rotation)
	meta := ImageMetadata{
		Width:          loaded.Width(),
		Height:         loaded.Height(),
		Format:         loaded.Format,
		Rotation:       geom.Degrees,
		BoundingWidth:  geom.Width,
		BoundingHeight: geom.Height,
	}

	if opts.Crop != nil || opts.Aspect != "" {
		crop, err := resolveCrop(opts, geom)
		if err != nil {
			return nil, err
		}
		region, err := transform.ClampCrop(crop, geom)
		if err != nil {
			return nil, err
		}
		clamped := transform.CropRegion{X: region.Min.X, Y: region.Min.Y, Width: region.Dx(), Height: region.Dy()}
		meta.Crop = &clamped
	}

	jsonData, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", processor.ErrProcessingFailed, err)
	}

	result := processor.ResultMetadata{
		Width:          meta.Width,
		Height:         meta.Height,
		Format:         meta.Format,
		SourceWidth:    meta.Width,
		SourceHeight:   meta.Height,
		SourceFormat:   meta.Format,
		BoundingWidth:  meta.BoundingWidth,
		BoundingHeight: meta.BoundingHeight,
		Rotation:       meta.Rotation,
	}
	if meta.Crop != nil {
		result.Crop = meta.Crop.String()
	}

	return &processor.Result{
		Data:        bytes.NewReader(jsonData),
		ContentType: "application/json",
		Size:        int64(len(jsonData)),
		Metadata:    result,
	}, nil
}
