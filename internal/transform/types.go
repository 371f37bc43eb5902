package transform

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// SourceImage is decoded source pixel data. It is never modified by the engine.
type SourceImage struct {
	Image  image.Image
	Format string
}

func (s *SourceImage) Width() int {
	return s.Image.Bounds().Dx()
}

func (s *SourceImage) Height() int {
	return s.Image.Bounds().Dy()
}

// Source is anything pixel data can be decoded from. Load is the only
// suspension point of an engine invocation.
type Source interface {
	Load(ctx context.Context) (*SourceImage, error)
}

type imageSource struct {
	img image.Image
}

// FromImage wraps already decoded pixels as a Source.
func FromImage(img image.Image) Source {
	return &imageSource{img: img}
}

func (s *imageSource) Load(ctx context.Context) (*SourceImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrSourceLoad)
	}
	return &SourceImage{Image: s.img}, nil
}

// CropRegion is a pixel rectangle in the coordinate space of the rotated
// bounding box, which is what an interactive crop box reports.
type CropRegion struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

func (c CropRegion) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

func (c CropRegion) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", c.X, c.Y, c.Width, c.Height)
}

// ParseCropRegion parses the "x,y,w,h" form produced by String.
func ParseCropRegion(s string) (CropRegion, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return CropRegion{}, fmt.Errorf("%w: %q is not x,y,width,height", ErrInvalidCropRegion, s)
	}
	var v [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return CropRegion{}, fmt.Errorf("%w: %q: %v", ErrInvalidCropRegion, s, err)
		}
		v[i] = n
	}
	return CropRegion{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// FullCrop covers the whole bounding box described by g.
func FullCrop(g Geometry) CropRegion {
	return CropRegion{Width: g.Width, Height: g.Height}
}

type Params struct {
	RotationDegrees int  `json:"rotation" yaml:"rotation"`
	FlipHorizontal  bool `json:"flip_horizontal" yaml:"flip_horizontal"`
	FlipVertical    bool `json:"flip_vertical" yaml:"flip_vertical"`
}

// IsIdentity reports whether p leaves pixels untouched.
func (p Params) IsIdentity() bool {
	return NormalizeDegrees(p.RotationDegrees) == 0 && !p.FlipHorizontal && !p.FlipVertical
}

// Request is one complete engine invocation.
type Request struct {
	Crop    CropRegion
	Params  Params
	Format  string
	Quality float64
}

type OutputImage struct {
	Data        []byte
	Format      string
	ContentType string
	Width       int
	Height      int
}

func (o *OutputImage) Size() int64 {
	return int64(len(o.Data))
}

// DataURI renders the output as an embedded data reference.
func (o *OutputImage) DataURI() string {
	return "data:" + o.ContentType + ";base64," + base64.StdEncoding.EncodeToString(o.Data)
}

// Result carries exactly one of Output or Err.
type Result struct {
	Output *OutputImage
	Err    error
}
