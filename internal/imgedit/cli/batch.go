package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/apperror"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/config"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/output"
	"github.com/abdul-hamid-achik/imgedit/internal/logger"
	"github.com/abdul-hamid-achik/imgedit/internal/metrics"
	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	"github.com/abdul-hamid-achik/imgedit/internal/source"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [files|dirs...]",
	Short: "Transform many images in parallel",
	Long: `Apply the same edit, or per-file edits from a YAML batch file, to many
images at once.

A batch file holds defaults, per-file overrides matched by path or glob
pattern, and extra sources such as URLs or s3:// keys:

  defaults:
    aspect: square
    format: png
  files:
    - pattern: "*_scan.jpg"
      rotation: 90
  sources:
    - https://example.com/banner.png

Examples:
  imgedit batch ./photos --aspect widescreen --out-dir ./out
  imgedit batch "shots/*.png" --rotate 180 --parallel 8
  imgedit batch ./scans -R --config batch.yaml --metrics-file batch.prom`,
	Args: cobra.ArbitraryArgs,
	RunE: runBatch,
}

var (
	batchEdit        editFlags
	batchParallel    int
	batchConfigPath  string
	batchOutDir      string
	batchRecursive   bool
	batchMetricsFile string
)

func init() {
	batchEdit.register(batchCmd)
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "j", config.DefaultParallel, "Number of concurrent transforms")
	batchCmd.Flags().StringVarP(&batchConfigPath, "config", "c", "", "YAML batch file with defaults and per-file overrides")
	batchCmd.Flags().StringVarP(&batchOutDir, "out-dir", "d", "", "Directory for outputs (default: next to each source)")
	batchCmd.Flags().BoolVarP(&batchRecursive, "recursive", "R", false, "Walk directories recursively")
	batchCmd.Flags().StringVar(&batchMetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile when done")
}

type batchJob struct {
	index  int
	ref    string
	opts   *processor.Options
	output string
	// indexed prefixes the derived file name with the entry number because
	// another entry would derive the same name.
	indexed bool
}

type batchResult struct {
	Source     string `json:"source"`
	Output     string `json:"output,omitempty"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	Skipped    bool   `json:"skipped,omitempty"`
	DurationMs int64  `json:"duration_ms"`

	err error
}

type batchSummary struct {
	Results    []batchResult `json:"results"`
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	P95Ms      int64         `json:"p95_ms"`
	DurationMs int64         `json:"duration_ms"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := GetContext(cmd, "batch")
	defer cancel()

	batchCfg := &config.BatchConfig{}
	if batchConfigPath != "" {
		loaded, err := config.LoadBatchConfig(batchConfigPath)
		if err != nil {
			return apperror.WrapWithMessage(err, "config_error", "Could not read batch file", apperror.ExitUsage)
		}
		batchCfg = loaded
	}

	files, err := collectFiles(args, batchRecursive)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrBadRequest)
	}
	refs := append(files, batchCfg.Sources...)
	if len(refs) == 0 {
		return usageError("no sources to process")
	}

	parallel := batchParallel
	if !cmd.Flags().Changed("parallel") {
		parallel = cfg.Parallel
	}
	if parallel < 1 {
		parallel = 1
	}
	outDir := batchOutDir
	if outDir == "" {
		outDir = cfg.OutDir
	}

	jobs, err := buildBatchJobs(cmd, batchCfg, refs)
	if err != nil {
		return err
	}
	if err := disambiguateOutputs(jobs, outDir); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("batch started",
		"entries", len(jobs),
		"parallel", parallel,
		"out_dir", outDir,
	)

	summary := executeBatch(ctx, jobs, parallel, outDir)

	if batchMetricsFile != "" {
		if err := metrics.WriteTextfile(batchMetricsFile); err != nil {
			printer.Warn("Could not write metrics file: %v", err)
		}
	}

	if jsonOutput {
		if err := printer.JSON(summary); err != nil {
			return err
		}
	} else {
		printer.Summary(summary.Successful, summary.Failed)
		if summary.Skipped > 0 {
			printer.Warn("%d entries skipped", summary.Skipped)
		}
		printer.KeyValue("p95 latency", fmt.Sprintf("%dms", summary.P95Ms))
		printer.KeyValue("Elapsed", (time.Duration(summary.DurationMs) * time.Millisecond).String())
	}

	if err := ctx.Err(); err != nil && summary.Skipped > 0 {
		return err
	}
	if summary.Failed > 0 {
		first := firstFailure(summary.Results)
		appErr := apperror.FromError(first)
		return apperror.WrapWithMessage(first, appErr.Code,
			fmt.Sprintf("%d of %d batch entries failed", summary.Failed, summary.Total), appErr.ExitCode)
	}
	return nil
}

func buildBatchJobs(cmd *cobra.Command, batchCfg *config.BatchConfig, refs []string) ([]batchJob, error) {
	jobs := make([]batchJob, 0, len(refs))
	for i, ref := range refs {
		entry := batchCfg.EntryFor(ref)
		opts, err := entryOptions(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		if err := batchEdit.apply(cmd, opts); err != nil {
			return nil, err
		}
		jobs = append(jobs, batchJob{index: i, ref: ref, opts: opts, output: entry.Output})
	}
	return jobs, nil
}

// disambiguateOutputs makes sure no two entries write the same file. Derived
// names that would clash (same base name from different directories, or the
// same stem with different extensions) get an entry number prefix. Explicit
// outputs that clash are a usage error.
func disambiguateOutputs(jobs []batchJob, outDir string) error {
	explicit := make(map[string]string)
	derived := make(map[string][]int)

	for i, job := range jobs {
		if job.output != "" {
			key := filepath.Clean(job.output)
			if prev, dup := explicit[key]; dup {
				return usageError("%s and %s both write %s", prev, job.ref, job.output)
			}
			explicit[key] = job.ref
			continue
		}
		if source.KindOf(job.ref) != source.KindFile {
			continue
		}
		path := strings.TrimPrefix(job.ref, "file://")
		dir, base := filepath.Split(path)
		if outDir != "" {
			dir = outDir
		}
		key := filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base)))
		derived[key] = append(derived[key], i)
	}

	for _, idx := range derived {
		if len(idx) < 2 {
			continue
		}
		for _, i := range idx {
			jobs[i].indexed = true
		}
	}
	return nil
}

// executeBatch runs jobs with at most parallel in flight. Once ctx is done
// the remaining jobs are skipped.
func executeBatch(ctx context.Context, jobs []batchJob, parallel int, outDir string) batchSummary {
	start := time.Now()
	collector := metrics.NewBatchCollector()
	progress := output.NewProgress(len(jobs), "Transforming",
		output.ProgressWithQuiet(quietMode || jsonOutput),
		output.ProgressWithOutput(printer.ErrOut()),
	)

	results := make([]batchResult, len(jobs))
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup

	for _, job := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if err := ctx.Err(); err != nil {
			collector.JobSkipped()
			results[job.index] = batchResult{Source: job.ref, Skipped: true, Error: err.Error(), Code: apperror.ErrCanceled.Code}
			continue
		}

		wg.Add(1)
		go func(job batchJob) {
			defer wg.Done()
			defer func() { <-sem }()

			res := runBatchJob(ctx, job, outDir, collector)
			results[job.index] = res

			if res.err != nil {
				printer.FileFailed(job.ref, res.err)
			}
			progress.Done(res.err == nil)
		}(job)
	}
	wg.Wait()
	progress.Finish()

	summary := batchSummary{
		Results:    results,
		Total:      len(jobs),
		P95Ms:      collector.Percentile(0.95).Milliseconds(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	for _, r := range results {
		switch {
		case r.Skipped:
			summary.Skipped++
		case r.Error != "":
			summary.Failed++
		default:
			summary.Successful++
		}
	}
	return summary
}

func runBatchJob(ctx context.Context, job batchJob, outDir string, collector *metrics.BatchCollector) batchResult {
	log := logger.FromContext(ctx).With("source", job.ref)
	ctx = logger.WithLogger(ctx, log)

	res := batchResult{Source: job.ref}
	start := time.Now()
	collector.JobStarted()

	result, data, err := processSource(ctx, "transform", job.ref, job.opts)
	if err == nil {
		res.Output = job.output
		if res.Output == "" {
			fallback := fmt.Sprintf("%03d_%s", job.index+1, result.Filename)
			res.Output = outputPath(job.ref, fallback, result.Metadata.Format, outDir, cfg.Suffix)
			if job.indexed {
				res.Output = filepath.Join(filepath.Dir(res.Output),
					fmt.Sprintf("%03d_%s", job.index+1, filepath.Base(res.Output)))
			}
		}
		err = writeOutput(res.Output, data)
	}

	elapsed := time.Since(start)
	res.DurationMs = elapsed.Milliseconds()

	if err != nil {
		collector.JobFailed(elapsed)
		res.Output = ""
		res.Error = err.Error()
		res.Code = apperror.FromError(err).Code
		res.err = err
		log.Warn("batch entry failed", "error", err, "duration_ms", res.DurationMs)
		return res
	}

	collector.JobCompleted(elapsed)
	res.Width = result.Metadata.Width
	res.Height = result.Metadata.Height
	res.Size = result.Size
	log.Debug("batch entry completed", "output", res.Output, "duration_ms", res.DurationMs)
	return res
}

func firstFailure(results []batchResult) error {
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	return errors.New("batch failed")
}
