package cli

import (
	"image/color"

	"github.com/abdul-hamid-achik/imgedit/internal/apperror"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/config"
	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
	"github.com/spf13/cobra"
)

// editFlags are the edit parameters shared by transform and batch.
type editFlags struct {
	preset     string
	crop       string
	aspect     string
	rotate     int
	flipH      bool
	flipV      bool
	format     string
	quality    float64
	background string
}

func (f *editFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.preset, "preset", "p", "", "Named recipe from the user config or a built-in aspect")
	fs.StringVar(&f.crop, "crop", "", "Crop region x,y,width,height in rotated coordinates")
	fs.StringVarP(&f.aspect, "aspect", "a", "", "Centred crop aspect (square, widescreen, og, 4:3, ...)")
	fs.IntVarP(&f.rotate, "rotate", "r", 0, "Clockwise rotation in degrees")
	fs.BoolVar(&f.flipH, "flip-h", false, "Mirror horizontally")
	fs.BoolVar(&f.flipV, "flip-v", false, "Mirror vertically")
	fs.StringVarP(&f.format, "format", "f", "", "Output format (jpeg, png, gif, bmp, tiff)")
	fs.Float64VarP(&f.quality, "quality", "q", 0, "Lossy quality in (0, 1]")
	fs.StringVar(&f.background, "background", "", "Fill colour for uncovered pixels (#rrggbb, transparent)")
}

// apply writes the flags the user actually set onto opts. A preset is applied
// first so that individual flags win over it.
func (f *editFlags) apply(cmd *cobra.Command, opts *processor.Options) error {
	fs := cmd.Flags()

	if f.preset != "" {
		preset, ok := cfg.GetPreset(f.preset)
		if !ok {
			return usageError("unknown preset: %s", f.preset)
		}
		applyPreset(opts, preset)
	}

	if f.crop != "" && f.aspect != "" {
		return usageError("--crop and --aspect cannot be combined")
	}
	if f.crop != "" {
		crop, err := transform.ParseCropRegion(f.crop)
		if err != nil {
			return err
		}
		opts.Crop = &crop
		opts.Aspect = ""
	}
	if fs.Changed("aspect") {
		opts.Aspect = cfg.ResolveAspect(f.aspect)
		opts.Crop = nil
	}
	if fs.Changed("rotate") {
		opts.Rotation = f.rotate
	}
	if fs.Changed("flip-h") {
		opts.FlipHorizontal = f.flipH
	}
	if fs.Changed("flip-v") {
		opts.FlipVertical = f.flipV
	}
	if fs.Changed("format") {
		opts.Format = f.format
	}
	if fs.Changed("quality") {
		opts.Quality = f.quality
	}
	if fs.Changed("background") {
		bg, err := config.ParseBackground(f.background)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrBadRequest)
		}
		if bg == nil {
			bg = color.NRGBA{}
		}
		opts.Background = bg
	}
	return nil
}

func applyPreset(opts *processor.Options, p config.Preset) {
	if p.Aspect != "" {
		opts.Aspect = p.Aspect
		opts.Crop = nil
	}
	if p.Rotation != 0 {
		opts.Rotation = p.Rotation
	}
	opts.FlipHorizontal = opts.FlipHorizontal || p.FlipHorizontal
	opts.FlipVertical = opts.FlipVertical || p.FlipVertical
	if p.Format != "" {
		opts.Format = p.Format
	}
	if p.Quality > 0 {
		opts.Quality = p.Quality
	}
}

// entryOptions builds the options for one batch entry before flags are
// applied.
func entryOptions(entry config.BatchEntry) (*processor.Options, error) {
	opts := &processor.Options{}
	if entry.Preset != "" {
		preset, ok := cfg.GetPreset(entry.Preset)
		if !ok {
			return nil, usageError("unknown preset: %s", entry.Preset)
		}
		applyPreset(opts, preset)
	}
	if entry.Aspect != "" {
		opts.Aspect = cfg.ResolveAspect(entry.Aspect)
	}
	if entry.Crop != "" {
		crop, err := transform.ParseCropRegion(entry.Crop)
		if err != nil {
			return nil, err
		}
		opts.Crop = &crop
		opts.Aspect = ""
	}
	if entry.Rotation != 0 {
		opts.Rotation = entry.Rotation
	}
	opts.FlipHorizontal = opts.FlipHorizontal || entry.FlipHorizontal
	opts.FlipVertical = opts.FlipVertical || entry.FlipVertical
	if entry.Format != "" {
		opts.Format = entry.Format
	}
	if entry.Quality > 0 {
		opts.Quality = entry.Quality
	}
	return opts, nil
}
