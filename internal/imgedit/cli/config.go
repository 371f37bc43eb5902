package cli

import (
	"fmt"
	"sort"

	"github.com/abdul-hamid-achik/imgedit/internal/apperror"
	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/config"
	"github.com/abdul-hamid-achik/imgedit/internal/presets"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and manage imgedit configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Available keys:
  default_format   Output format when --format is not given
  default_quality  Lossy quality in (0, 1]
  background       Fill colour for uncovered pixels
  parallel         Default batch parallelism (1-64)
  out_dir          Default output directory
  suffix           Appended to output file names

Examples:
  imgedit config set default_format png
  imgedit config set background "#ffffff"
  imgedit config set parallel 8`,
	Args: usageArgs(cobra.ExactArgs(2)),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	RunE:  runConfigPath,
}

var configPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available presets",
	RunE:  runConfigPresets,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configPresetsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		return printer.JSON(map[string]interface{}{
			"default_format":  cfg.DefaultFormat,
			"default_quality": cfg.DefaultQuality,
			"background":      cfg.Background,
			"parallel":        cfg.Parallel,
			"out_dir":         cfg.OutDir,
			"suffix":          cfg.Suffix,
			"presets":         cfg.Presets,
			"storage":         envCfg.StorageEnabled(),
			"tracing":         envCfg.OTelEnabled,
		})
	}

	printer.Section("Configuration")
	printer.KeyValue("Default Format", orDefault(cfg.DefaultFormat, envCfg.DefaultFormat))
	quality := cfg.DefaultQuality
	if quality == 0 {
		quality = envCfg.DefaultQuality
	}
	printer.KeyValue("Default Quality", fmt.Sprintf("%.2f", quality))
	printer.KeyValue("Background", orDefault(cfg.Background, orDefault(envCfg.Background, "transparent")))
	printer.KeyValue("Parallel", fmt.Sprintf("%d", cfg.Parallel))
	printer.KeyValue("Output Dir", orDefault(cfg.OutDir, "next to source"))
	printer.KeyValue("Suffix", cfg.Suffix)
	printer.KeyValue("Object Storage", fmt.Sprintf("%v", envCfg.StorageEnabled()))
	printer.KeyValue("Tracing", fmt.Sprintf("%v", envCfg.OTelEnabled))

	if len(cfg.Presets) > 0 {
		printer.Section("Custom Presets")
		for _, name := range sortedKeys(cfg.Presets) {
			printer.Printf("  %s: %s\n", name, describePreset(cfg.Presets[name]))
		}
	}

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	if err := cfg.Set(key, value); err != nil {
		return apperror.Wrap(err, apperror.ErrBadRequest)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	printer.Success("Set %s = %s", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printer.JSON(map[string]string{"path": path})
	}

	printer.Println(path)
	return nil
}

func runConfigPresets(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		allPresets := make(map[string]config.Preset)
		for name, preset := range config.BuiltinPresets {
			allPresets[name] = preset
		}
		for name, preset := range cfg.Presets {
			allPresets[name] = preset
		}
		return printer.JSON(allPresets)
	}

	printer.Section("Built-in Presets")
	for _, name := range presets.Names() {
		p, _ := presets.Get(name)
		printer.Printf("  %-12s %s\n", name, p)
	}

	if len(cfg.Presets) > 0 {
		printer.Section("Custom Presets")
		for _, name := range sortedKeys(cfg.Presets) {
			printer.Printf("  %-12s %s\n", name, describePreset(cfg.Presets[name]))
		}
	}

	return nil
}

func describePreset(p config.Preset) string {
	s := "aspect " + orDefault(p.Aspect, "free")
	if p.Rotation != 0 {
		s += fmt.Sprintf(", rotate %d", p.Rotation)
	}
	if p.FlipHorizontal {
		s += ", flip-h"
	}
	if p.FlipVertical {
		s += ", flip-v"
	}
	if p.Format != "" {
		s += ", " + p.Format
	}
	if p.Quality > 0 {
		s += fmt.Sprintf(" q%.2f", p.Quality)
	}
	return s
}

func sortedKeys(m map[string]config.Preset) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
