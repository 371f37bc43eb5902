package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/apperror"
	appconfig "github.com/abdul-hamid-achik/imgedit/internal/config"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/config"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/output"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/version"
	"github.com/abdul-hamid-achik/imgedit/internal/logger"
	"github.com/abdul-hamid-achik/imgedit/internal/metrics"
	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	imageproc "github.com/abdul-hamid-achik/imgedit/internal/processor/image"
	"github.com/abdul-hamid-achik/imgedit/internal/source"
	"github.com/abdul-hamid-achik/imgedit/internal/storage"
	"github.com/abdul-hamid-achik/imgedit/internal/tracing"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	quietMode  bool
	noColor    bool

	envCfg   *appconfig.Config
	cfg      *config.Config
	printer  *output.Printer
	store    storage.Storage
	resolver *source.Resolver
	registry *processor.Registry

	shutdownTracing func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "imgedit",
	Short: "imgedit - crop, rotate and flip images from the terminal",
	Long: `imgedit crops, rotates by any angle and mirrors images, then re-encodes them.

Sources may be file paths, "-" for stdin, http(s) URLs, data: URIs or
s3://key references when object storage is configured.

Get started:
  imgedit transform photo.jpg --aspect square -o avatar.png
  imgedit transform photo.jpg --rotate 15 --background "#ffffff"
  imgedit batch ./photos --aspect widescreen --out-dir ./out
  imgedit info photo.jpg --rotate 90`,
	Version:           version.Full(),
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}

	if shutdownTracing != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := shutdownTracing(shutdownCtx); serr != nil {
			logger.FromContext(ctx).Warn("tracing shutdown failed", "error", serr)
		}
		cancel()
	}

	return apperror.Report(ctx, rootCmd.ErrOrStderr(), err, jsonOutput)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")

	rootCmd.SetVersionTemplate("imgedit version {{.Version}}\n")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apperror.Wrap(err, apperror.ErrBadRequest)
	})

	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	envCfg, err = appconfig.Load()
	if err != nil {
		return apperror.WrapWithMessage(err, "config_error", "Invalid environment configuration", apperror.ExitUsage)
	}
	if err := envCfg.Validate(); err != nil {
		return apperror.WrapWithMessage(err, "config_error", "Invalid environment configuration", apperror.ExitUsage)
	}

	logger.Init(envCfg.LogLevel, envCfg.LogFormat)
	ctx := logger.WithRequestID(cmd.Context(), uuid.NewString())
	cmd.SetContext(ctx)

	cfg, err = config.Load()
	if err != nil {
		return apperror.WrapWithMessage(err, "config_error", "Invalid user configuration", apperror.ExitUsage)
	}

	printer = output.New(
		output.WithJSON(jsonOutput),
		output.WithQuiet(quietMode),
		output.WithNoColor(noColor),
		output.WithOutput(cmd.OutOrStdout()),
		output.WithErrOutput(cmd.ErrOrStderr()),
	)

	shutdownTracing, err = tracing.Init(ctx, &tracing.Config{
		ServiceName:    "imgedit",
		ServiceVersion: version.Short(),
		Environment:    envCfg.Environment,
		OTLPEndpoint:   envCfg.OTelEndpoint,
		Enabled:        envCfg.OTelEnabled,
		SampleRate:     envCfg.OTelSampleRate,
	})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrServiceUnavailable)
	}
	metrics.SetAppInfo(version.Short(), envCfg.Environment)

	store = nil
	if envCfg.StorageEnabled() {
		minioStore, err := storage.NewMinIOStorage(&storage.Config{
			Endpoint:  envCfg.MinIOEndpoint,
			AccessKey: envCfg.MinIOAccessKey,
			SecretKey: envCfg.MinIOSecretKey,
			Bucket:    envCfg.MinIOBucket,
			UseSSL:    envCfg.MinIOUseSSL,
			Region:    envCfg.MinIORegion,
		})
		if err != nil {
			return apperror.Wrap(err, apperror.ErrServiceUnavailable)
		}
		store = metrics.NewInstrumentedStorage(minioStore)
	}

	fetchTimeout := envCfg.FetchTimeout
	if cfg.Timeouts.Fetch != "" {
		fetchTimeout = cfg.GetTimeout("fetch")
	}
	resolver = source.NewResolver(source.Options{
		MaxBytes:     envCfg.MaxSourceBytes,
		MaxDimension: envCfg.MaxDimension,
		AutoOrient:   envCfg.AutoOrient,
		FetchTimeout: fetchTimeout,
	}, store).WithStdin(cmd.InOrStdin())

	procCfg, err := processorConfig()
	if err != nil {
		return err
	}
	registry = processor.NewRegistry()
	imageproc.RegisterAll(registry, procCfg)

	logger.FromContext(ctx).Debug("cli initialised",
		"command", cmd.Name(),
		"storage", store != nil,
		"tracing", envCfg.OTelEnabled,
	)
	return nil
}

// processorConfig layers the user config over the environment defaults.
func processorConfig() (*processor.Config, error) {
	pc := processor.DefaultConfig()
	pc.MaxDimension = envCfg.MaxDimension
	pc.Format = envCfg.DefaultFormat
	pc.Quality = envCfg.DefaultQuality
	if cfg.DefaultFormat != "" {
		pc.Format = cfg.DefaultFormat
	}
	if cfg.DefaultQuality > 0 {
		pc.Quality = cfg.DefaultQuality
	}

	bg := envCfg.Background
	if cfg.Background != "" {
		bg = cfg.Background
	}
	background, err := config.ParseBackground(bg)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrBadRequest)
	}
	pc.Background = background
	return pc, nil
}

// usageArgs turns cobra argument validation failures into usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return apperror.Wrap(err, apperror.ErrBadRequest)
		}
		return nil
	}
}

func usageError(format string, args ...interface{}) error {
	return apperror.Wrap(fmt.Errorf(format, args...), apperror.ErrBadRequest)
}
