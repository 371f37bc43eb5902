package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BatchConfig describes a batch run: defaults, per-file overrides matched
// by exact path or glob pattern, and extra non-file sources.
type BatchConfig struct {
	Defaults BatchDefaults     `yaml:"defaults,omitempty"`
	Files    []BatchFileConfig `yaml:"files,omitempty"`
	Sources  []string          `yaml:"sources,omitempty"`
}

type BatchDefaults struct {
	Preset         string  `yaml:"preset,omitempty"`
	Aspect         string  `yaml:"aspect,omitempty"`
	Rotation       int     `yaml:"rotation,omitempty"`
	FlipHorizontal bool    `yaml:"flip_horizontal,omitempty"`
	FlipVertical   bool    `yaml:"flip_vertical,omitempty"`
	Format         string  `yaml:"format,omitempty"`
	Quality        float64 `yaml:"quality,omitempty"`
	Background     string  `yaml:"background,omitempty"`
}

type BatchFileConfig struct {
	Pattern        string  `yaml:"pattern,omitempty"`
	Path           string  `yaml:"path,omitempty"`
	Preset         string  `yaml:"preset,omitempty"`
	Aspect         string  `yaml:"aspect,omitempty"`
	Crop           string  `yaml:"crop,omitempty"`
	Rotation       *int    `yaml:"rotation,omitempty"`
	FlipHorizontal *bool   `yaml:"flip_horizontal,omitempty"`
	FlipVertical   *bool   `yaml:"flip_vertical,omitempty"`
	Format         string  `yaml:"format,omitempty"`
	Quality        float64 `yaml:"quality,omitempty"`
	Output         string  `yaml:"output,omitempty"`
}

// BatchEntry is the fully merged edit for one source.
type BatchEntry struct {
	Preset         string
	Aspect         string
	Crop           string
	Rotation       int
	FlipHorizontal bool
	FlipVertical   bool
	Format         string
	Quality        float64
	Output         string
}

func LoadBatchConfig(path string) (*BatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &BatchConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (bc *BatchConfig) GetFileConfig(filename string) *BatchFileConfig {
	baseName := filepath.Base(filename)

	for _, fc := range bc.Files {
		if fc.Path != "" && (fc.Path == filename || fc.Path == baseName) {
			return &fc
		}

		if fc.Pattern != "" {
			matched, err := filepath.Match(fc.Pattern, baseName)
			if err == nil && matched {
				return &fc
			}
		}
	}

	return nil
}

// EntryFor merges the defaults with the first matching file override.
func (bc *BatchConfig) EntryFor(filename string) BatchEntry {
	d := bc.Defaults
	entry := BatchEntry{
		Preset:         d.Preset,
		Aspect:         d.Aspect,
		Rotation:       d.Rotation,
		FlipHorizontal: d.FlipHorizontal,
		FlipVertical:   d.FlipVertical,
		Format:         d.Format,
		Quality:        d.Quality,
	}

	fc := bc.GetFileConfig(filename)
	if fc == nil {
		return entry
	}

	if fc.Preset != "" {
		entry.Preset = fc.Preset
		entry.Aspect = ""
	}
	if fc.Aspect != "" {
		entry.Aspect = fc.Aspect
	}
	entry.Crop = fc.Crop
	if fc.Rotation != nil {
		entry.Rotation = *fc.Rotation
	}
	if fc.FlipHorizontal != nil {
		entry.FlipHorizontal = *fc.FlipHorizontal
	}
	if fc.FlipVertical != nil {
		entry.FlipVertical = *fc.FlipVertical
	}
	if fc.Format != "" {
		entry.Format = fc.Format
	}
	if fc.Quality > 0 {
		entry.Quality = fc.Quality
	}
	entry.Output = fc.Output
	return entry
}
