package presets

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

var ErrUnknownPreset = errors.New("presets: unknown aspect preset")

// Preset is a crop aspect ratio. Width and Height are ratio terms, not pixels.
// A free preset imposes no aspect and selects the whole bounding box.
type Preset struct {
	Width  int
	Height int
	Free   bool
}

func (p Preset) String() string {
	if p.Free {
		return "free"
	}
	return fmt.Sprintf("%d:%d", p.Width, p.Height)
}

// Ratio returns width over height, or 0 for a free preset.
func (p Preset) Ratio() float64 {
	if p.Free || p.Height == 0 {
		return 0
	}
	return float64(p.Width) / float64(p.Height)
}

var Free = Preset{Free: true}

var Square = Preset{Width: 1, Height: 1}

var Widescreen = Preset{Width: 16, Height: 9}

var Social = map[string]Preset{
	"og":       {Width: 1200, Height: 630},
	"twitter":  {Width: 1200, Height: 675},
	"portrait": {Width: 4, Height: 5},
	"story":    {Width: 9, Height: 16},
}

var All = map[string]Preset{
	"free":       Free,
	"square":     Square,
	"widescreen": Widescreen,
	"og":         Social["og"],
	"twitter":    Social["twitter"],
	"portrait":   Social["portrait"],
	"story":      Social["story"],
}

func Get(name string) (Preset, bool) {
	p, ok := All[strings.ToLower(name)]
	return p, ok
}

func IsSocialPreset(name string) bool {
	_, ok := Social[name]
	return ok
}

// Names returns the built-in preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(All))
	for name := range All {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse accepts a preset name or an explicit "W:H" ratio.
func Parse(value string) (Preset, error) {
	v := strings.TrimSpace(value)
	if p, ok := Get(v); ok {
		return p, nil
	}

	w, h, ok := strings.Cut(v, ":")
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, value)
	}
	pw, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || pw <= 0 {
		return Preset{}, fmt.Errorf("%w: invalid ratio %q", ErrUnknownPreset, value)
	}
	ph, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || ph <= 0 {
		return Preset{}, fmt.Errorf("%w: invalid ratio %q", ErrUnknownPreset, value)
	}
	return Preset{Width: pw, Height: ph}, nil
}

// CenteredCrop returns the largest crop of the preset's aspect that fits the
// rotated bounding box, centred in it.
func CenteredCrop(geom transform.Geometry, p Preset) transform.CropRegion {
	if p.Free || p.Width <= 0 || p.Height <= 0 {
		return transform.FullCrop(geom)
	}

	w, h := geom.Width, geom.Height
	if int64(geom.Width)*int64(p.Height) <= int64(geom.Height)*int64(p.Width) {
		h = int(int64(geom.Width) * int64(p.Height) / int64(p.Width))
	} else {
		w = int(int64(geom.Height) * int64(p.Width) / int64(p.Height))
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return transform.CropRegion{
		X:      (geom.Width - w) / 2,
		Y:      (geom.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}
