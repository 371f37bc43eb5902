package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var transformCmd = &cobra.Command{
	Use:   "transform <source>",
	Short: "Crop, rotate and flip one image",
	Long: `Crop, rotate and flip one image, then encode the result.

The crop region is given in the coordinates of the rotated image, which is
what an interactive crop box reports. Regions running past the edge are
clamped.

Examples:
  imgedit transform photo.jpg --aspect square -o avatar.png
  imgedit transform photo.jpg --rotate 90 --crop 0,0,400,300
  imgedit transform photo.jpg --rotate 15 --background "#ffffff" -f jpeg -q 0.8
  imgedit transform https://example.com/a.png --flip-h -o - > out.jpg
  imgedit transform s3://uploads/a.png --aspect og --data-uri`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: runTransform,
}

var (
	transformEdit    editFlags
	transformOutput  string
	transformDataURI bool
	transformOpen    bool
)

func init() {
	transformEdit.register(transformCmd)
	transformCmd.Flags().StringVarP(&transformOutput, "output", "o", "", `Output path ("-" for stdout)`)
	transformCmd.Flags().BoolVar(&transformDataURI, "data-uri", false, "Print the result as a data: URI")
	transformCmd.Flags().BoolVar(&transformOpen, "open", false, "Open the written file in the default viewer")
}

type transformReport struct {
	Source      string                   `json:"source"`
	Output      string                   `json:"output,omitempty"`
	DataURI     string                   `json:"data_uri,omitempty"`
	ContentType string                   `json:"content_type"`
	Size        int64                    `json:"size"`
	Metadata    processor.ResultMetadata `json:"metadata"`
}

func runTransform(cmd *cobra.Command, args []string) error {
	ctx, cancel := GetContext(cmd, "transform")
	defer cancel()

	ref := args[0]
	if transformOpen && (transformDataURI || transformOutput == "-") {
		return usageError("--open needs a file output")
	}

	opts := &processor.Options{}
	if err := transformEdit.apply(cmd, opts); err != nil {
		return err
	}

	result, data, err := processSource(ctx, "transform", ref, opts)
	if err != nil {
		return err
	}

	report := transformReport{
		Source:      ref,
		ContentType: result.ContentType,
		Size:        result.Size,
		Metadata:    result.Metadata,
	}

	switch {
	case transformDataURI:
		out := &transform.OutputImage{Data: data, ContentType: result.ContentType}
		report.DataURI = out.DataURI()
		if jsonOutput {
			return printer.JSON(report)
		}
		_, err := fmt.Fprintln(printer.Out(), report.DataURI)
		return err

	case transformOutput == "-":
		_, err := printer.Out().Write(data)
		return err
	}

	dest := transformOutput
	if dest == "" {
		dest = outputPath(ref, result.Filename, result.Metadata.Format, cfg.OutDir, cfg.Suffix)
	}
	if err := writeOutput(dest, data); err != nil {
		return err
	}
	report.Output = dest

	if jsonOutput {
		if err := printer.JSON(report); err != nil {
			return err
		}
	} else {
		printer.FileWritten(ref, dest, result.Metadata.Width, result.Metadata.Height, result.Size)
	}

	if transformOpen {
		browser.Stdout = printer.ErrOut()
		browser.Stderr = printer.ErrOut()
		if err := browser.OpenFile(dest); err != nil {
			printer.Warn("Could not open %s: %v", dest, err)
		}
	}
	return nil
}

// processSource resolves ref and runs the named processor over it, returning
// the fully read result bytes.
func processSource(ctx context.Context, name, ref string, opts *processor.Options) (*processor.Result, []byte, error) {
	proc, err := registry.Lookup(name)
	if err != nil {
		return nil, nil, err
	}

	src, err := resolver.Resolve(ref)
	if err != nil {
		return nil, nil, err
	}

	result, err := proc.Process(ctx, opts, src)
	if err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(result.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s result: %w", name, err)
	}
	return result, data, nil
}
