package transform

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Composite paints src onto an intermediate surface sized to geom, rotated
// clockwise about the surface centre and mirrored in the rotated frame, then
// copies the clamped crop rectangle into a second surface of exactly that size.
// A nil background leaves uncovered pixels transparent.
func Composite(src image.Image, geom Geometry, params Params, crop CropRegion, background color.Color) (*image.NRGBA, error) {
	region, err := ClampCrop(crop, geom)
	if err != nil {
		return nil, err
	}

	var surface image.Image
	if IsQuadrant(geom.Degrees) {
		surface = paintQuadrant(src, geom, params, background)
	} else {
		surface = paintRotated(src, geom, params, background)
	}

	return imaging.Crop(surface, region), nil
}

// Apply resolves geometry for img and composites it in one call.
func Apply(img image.Image, crop CropRegion, params Params, background color.Color) (*image.NRGBA, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrSourceLoad)
	}
	geom := Resolve(b.Dx(), b.Dy(), params.RotationDegrees)
	return Composite(img, geom, params, crop, background)
}

// ClampCrop intersects crop with the bounding box. A region that runs past the
// box is shrunk to the available extent; one that collapses is an error.
func ClampCrop(crop CropRegion, geom Geometry) (image.Rectangle, error) {
	if crop.Width <= 0 || crop.Height <= 0 {
		return image.Rectangle{}, fmt.Errorf("%w: size %dx%d must be positive", ErrInvalidCropRegion, crop.Width, crop.Height)
	}
	if crop.X < 0 || crop.Y < 0 {
		return image.Rectangle{}, fmt.Errorf("%w: origin (%d,%d) must not be negative", ErrInvalidCropRegion, crop.X, crop.Y)
	}

	region := crop.Rect().Intersect(image.Rect(0, 0, geom.Width, geom.Height))
	if region.Empty() {
		return image.Rectangle{}, fmt.Errorf("%w: region %s does not intersect %dx%d bounding box",
			ErrInvalidCropRegion, crop, geom.Width, geom.Height)
	}
	return region, nil
}

// paintQuadrant is the lossless path: right-angle rotations and mirrors are
// pixel permutations, so no resampling happens.
func paintQuadrant(src image.Image, geom Geometry, params Params, background color.Color) *image.NRGBA {
	var dst *image.NRGBA

	// imaging rotates counter-clockwise.
	switch geom.Degrees {
	case 90:
		dst = imaging.Rotate270(src)
	case 180:
		dst = imaging.Rotate180(src)
	case 270:
		dst = imaging.Rotate90(src)
	default:
		dst = imaging.Clone(src)
	}

	if params.FlipHorizontal {
		dst = imaging.FlipH(dst)
	}
	if params.FlipVertical {
		dst = imaging.FlipV(dst)
	}

	if background != nil {
		dst = imaging.Overlay(imaging.New(geom.Width, geom.Height, background), dst, image.Point{}, 1.0)
	}
	return dst
}

func paintRotated(src image.Image, geom Geometry, params Params, background color.Color) image.Image {
	if src.Bounds().Min != (image.Point{}) {
		src = imaging.Clone(src)
	}

	dc := gg.NewContext(geom.Width, geom.Height)
	if background != nil {
		dc.SetColor(background)
		dc.Clear()
	}

	sx, sy := 1.0, 1.0
	if params.FlipHorizontal {
		sx = -1
	}
	if params.FlipVertical {
		sy = -1
	}

	// Later calls apply to points first: centre the source on the origin,
	// rotate, mirror in screen space, then move the pivot to the surface
	// centre. The centring offset must stay fractional for odd sizes, so it
	// lives in the matrix rather than in DrawImageAnchored.
	b := src.Bounds()
	dc.Translate(geom.CenterX, geom.CenterY)
	dc.Scale(sx, sy)
	dc.Rotate(geom.Radians())
	dc.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	dc.DrawImage(src, 0, 0)

	return dc.Image()
}
