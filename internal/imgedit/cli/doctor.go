package cli

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"net"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/apperror"
	"github.com/abdul-hamid-achik/imgedit/internal/health"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/output"
	"github.com/abdul-hamid-achik/imgedit/internal/source"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configured dependencies",
	Long: `Check that codecs work and that configured dependencies (object storage,
the OTLP trace endpoint) are reachable.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runDoctor,
}

var doctorTimeout time.Duration

func init() {
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", 5*time.Second, "Per-check timeout")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checker := health.NewChecker().
		WithTimeout(doctorTimeout).
		WithCheck("codecs", checkCodecs).
		WithCheck("processors", checkProcessors)

	if store != nil {
		checker.WithStorage(store)
	} else {
		checker.Skip("storage", "MINIO_ENDPOINT not configured")
	}

	if envCfg.OTelEnabled {
		checker.WithCheck("tracing", dialCheck(envCfg.OTelEndpoint))
	} else {
		checker.Skip("tracing", "OTEL_ENABLED is false")
	}

	resp := checker.CheckAll(cmd.Context())

	if jsonOutput {
		if err := printer.JSON(resp); err != nil {
			return err
		}
	} else {
		table := output.NewTable(printer.Out(), quietMode, "COMPONENT", "STATUS", "LATENCY", "DETAIL").AlignRight(2)
		for _, comp := range resp.Components {
			detail := comp.Detail
			if comp.Error != "" {
				detail = comp.Error
			}
			table.Row(comp.Name, string(comp.Status), fmt.Sprintf("%dms", comp.Latency), detail)
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if resp.Status == health.StatusUnhealthy {
		var failed []string
		for _, comp := range resp.Components {
			if comp.Status == health.StatusUnhealthy {
				failed = append(failed, comp.Name)
			}
		}
		return apperror.Wrap(fmt.Errorf("unhealthy: %s", strings.Join(failed, ", ")), apperror.ErrServiceUnavailable)
	}
	return nil
}

// checkCodecs round-trips a small image through every output format.
func checkCodecs(ctx context.Context) error {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})

	for _, format := range []string{"jpeg", "png", "gif", "bmp", "tiff"} {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := transform.Encode(img, format, 0)
		if err != nil {
			return err
		}
		decoded, err := source.Decode(out.Data, source.DefaultOptions())
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		if decoded.Width() != 4 || decoded.Height() != 4 {
			return fmt.Errorf("%s: round trip produced %dx%d", format, decoded.Width(), decoded.Height())
		}
	}
	return nil
}

// checkProcessors verifies the edit operations are registered and accept the
// common source types.
func checkProcessors(ctx context.Context) error {
	for _, name := range []string{"transform", "metadata"} {
		if _, err := registry.Lookup(name); err != nil {
			return err
		}
	}
	for _, ct := range []string{"image/jpeg", "image/png"} {
		if len(registry.ForType(ct)) == 0 {
			return fmt.Errorf("no processor accepts %s", ct)
		}
	}
	return nil
}

func dialCheck(endpoint string) health.CheckFunc {
	return func(ctx context.Context) error {
		addr := endpoint
		if i := strings.Index(addr, "://"); i >= 0 {
			addr = addr[i+3:]
		}
		addr = strings.TrimSuffix(addr, "/")

		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
