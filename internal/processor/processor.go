package processor

import (
	"context"
	"errors"
	"image/color"
	"io"

	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

var (
	ErrProcessingFailed  = errors.New("processor: processing failed")
	ErrInvalidConfig     = errors.New("processor: invalid configuration")
	ErrProcessorNotFound = errors.New("processor: not registered")
)

type Processor interface {
	Process(ctx context.Context, opts *Options, src transform.Source) (*Result, error)
	SupportedTypes() []string
	Name() string
}

// Options carries one invocation's parameters. Crop takes precedence over
// Aspect; with neither the whole rotated bounding box is kept.
type Options struct {
	Crop           *transform.CropRegion
	Aspect         string
	Rotation       int
	FlipHorizontal bool
	FlipVertical   bool
	Format         string
	Quality        float64
	Background     color.Color
}

// Params returns the transform parameters described by the options.
func (o *Options) Params() transform.Params {
	return transform.Params{
		RotationDegrees: o.Rotation,
		FlipHorizontal:  o.FlipHorizontal,
		FlipVertical:    o.FlipVertical,
	}
}

type Result struct {
	Data        io.Reader
	ContentType string
	Filename    string
	Size        int64
	Metadata    ResultMetadata
}

type ResultMetadata struct {
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Format         string  `json:"format,omitempty"`
	Quality        float64 `json:"quality,omitempty"`
	SourceWidth    int     `json:"source_width,omitempty"`
	SourceHeight   int     `json:"source_height,omitempty"`
	SourceFormat   string  `json:"source_format,omitempty"`
	BoundingWidth  int     `json:"bounding_width,omitempty"`
	BoundingHeight int     `json:"bounding_height,omitempty"`
	Rotation       int     `json:"rotation"`
	Crop           string  `json:"crop,omitempty"`
}

type Config struct {
	Format       string
	Quality      float64
	MaxDimension int
	Background   color.Color
}

func DefaultConfig() *Config {
	return &Config{
		Format:       transform.DefaultFormat,
		Quality:      transform.DefaultQuality,
		MaxDimension: 16384,
	}
}
