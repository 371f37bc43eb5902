package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/output"
	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	imageproc "github.com/abdul-hamid-achik/imgedit/internal/processor/image"
	"github.com/abdul-hamid-achik/imgedit/internal/source"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <source>",
	Short: "Show image dimensions and rotated bounds",
	Long: `Show the decoded size and format of an image, the bounding box it
occupies at a given rotation and, with --aspect or --crop, the region a
transform would extract.

Examples:
  imgedit info photo.jpg
  imgedit info photo.jpg --rotate 30
  imgedit info photo.jpg --rotate 90 --aspect og --json`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runInfo,
}

var (
	infoRotate int
	infoAspect string
	infoCrop   string
)

func init() {
	infoCmd.Flags().IntVarP(&infoRotate, "rotate", "r", 0, "Clockwise rotation in degrees")
	infoCmd.Flags().StringVarP(&infoAspect, "aspect", "a", "", "Report the centred crop for this aspect")
	infoCmd.Flags().StringVar(&infoCrop, "crop", "", "Report how this crop region is clamped")
}

type infoReport struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	imageproc.ImageMetadata
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, cancel := GetContext(cmd, "transform")
	defer cancel()

	ref := args[0]
	opts := &processor.Options{Rotation: infoRotate}
	if infoAspect != "" {
		opts.Aspect = cfg.ResolveAspect(infoAspect)
	}
	if infoCrop != "" {
		crop, err := transform.ParseCropRegion(infoCrop)
		if err != nil {
			return err
		}
		opts.Crop = &crop
	}

	_, data, err := processSource(ctx, "metadata", ref, opts)
	if err != nil {
		return err
	}

	report := infoReport{Source: ref, Kind: string(source.KindOf(ref))}
	if err := json.Unmarshal(data, &report.ImageMetadata); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	if jsonOutput {
		return printer.JSON(report)
	}

	table := output.NewTable(printer.Out(), quietMode, "PROPERTY", "VALUE")
	table.Row("Source", report.Source)
	table.Row("Kind", report.Kind)
	table.Row("Format", report.Format)
	table.Row("Size", fmt.Sprintf("%dx%d", report.Width, report.Height))
	table.Row("Rotation", strconv.Itoa(report.Rotation))
	table.Row("Bounding box", fmt.Sprintf("%dx%d", report.BoundingWidth, report.BoundingHeight))
	if report.Crop != nil {
		table.Row("Crop", report.Crop.String())
	}
	return table.Render()
}
