package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/imgedit/internal/presets"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Config is the per-user CLI configuration stored as YAML.
type Config struct {
	DefaultFormat  string            `yaml:"default_format,omitempty"`
	DefaultQuality float64           `yaml:"default_quality,omitempty"`
	Background     string            `yaml:"background,omitempty"`
	Parallel       int               `yaml:"parallel,omitempty"`
	OutDir         string            `yaml:"out_dir,omitempty"`
	Suffix         string            `yaml:"suffix,omitempty"`
	Presets        map[string]Preset `yaml:"presets,omitempty"`
	Timeouts       TimeoutConfig     `yaml:"timeouts,omitempty"`
}

// TimeoutConfig holds durations parseable by time.ParseDuration.
type TimeoutConfig struct {
	Fetch     string `yaml:"fetch,omitempty"`     // remote source download (default: 30s)
	Transform string `yaml:"transform,omitempty"` // single transform (default: 2m)
	Batch     string `yaml:"batch,omitempty"`     // whole batch run (default: 30m)
}

// Preset is a named edit recipe. Aspect is a built-in aspect name or a
// "W:H" ratio.
type Preset struct {
	Aspect         string  `yaml:"aspect,omitempty" json:"aspect,omitempty"`
	Rotation       int     `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	FlipHorizontal bool    `yaml:"flip_horizontal,omitempty" json:"flip_horizontal,omitempty"`
	FlipVertical   bool    `yaml:"flip_vertical,omitempty" json:"flip_vertical,omitempty"`
	Format         string  `yaml:"format,omitempty" json:"format,omitempty"`
	Quality        float64 `yaml:"quality,omitempty" json:"quality,omitempty"`
}

const (
	DefaultParallel = 4
	DefaultSuffix   = "-edited"

	// Environment variable names for configuration overrides
	EnvConfigDir = "IMGEDIT_CONFIG_DIR"
	EnvParallel  = "IMGEDIT_PARALLEL"

	DefaultFetchTimeout     = 30 * time.Second
	DefaultTransformTimeout = 2 * time.Minute
	DefaultBatchTimeout     = 30 * time.Minute
)

// BuiltinPresets mirrors the aspect presets so every aspect is usable as a
// recipe name.
var BuiltinPresets = func() map[string]Preset {
	m := make(map[string]Preset, len(presets.All))
	for name := range presets.All {
		m[name] = Preset{Aspect: name}
	}
	return m
}()

func Dir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "imgedit"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load() (*Config, error) {
	cfg := &Config{
		Parallel: DefaultParallel,
		Suffix:   DefaultSuffix,
		Presets:  make(map[string]Preset),
	}

	path, err := Path()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.Parallel == 0 {
		cfg.Parallel = DefaultParallel
	}
	if cfg.Suffix == "" {
		cfg.Suffix = DefaultSuffix
	}
	if cfg.Presets == nil {
		cfg.Presets = make(map[string]Preset)
	}

	// Environment variables take precedence over config file
	if v := os.Getenv(EnvParallel); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Parallel = p
		}
	}

	return cfg, nil
}

func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := Path()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

func (c *Config) GetPreset(name string) (Preset, bool) {
	if preset, ok := c.Presets[name]; ok {
		return preset, true
	}
	if preset, ok := BuiltinPresets[name]; ok {
		return preset, true
	}
	return Preset{}, false
}

// ResolveAspect maps a user preset name to its aspect; anything else is
// returned unchanged for presets.Parse.
func (c *Config) ResolveAspect(value string) string {
	if preset, ok := c.Presets[value]; ok && preset.Aspect != "" {
		return preset.Aspect
	}
	return value
}

// Set assigns a single key from its string form.
func (c *Config) Set(key, value string) error {
	switch key {
	case "default_format":
		c.DefaultFormat = strings.ToLower(strings.TrimSpace(value))
	case "default_quality":
		q, err := strconv.ParseFloat(value, 64)
		if err != nil || q < 0 || q > 1 {
			return fmt.Errorf("default_quality must be a number between 0 and 1")
		}
		c.DefaultQuality = q
	case "background":
		if _, err := ParseBackground(value); err != nil {
			return err
		}
		c.Background = value
	case "parallel":
		p, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid parallel value: %s", value)
		}
		if p < 1 || p > 64 {
			return fmt.Errorf("parallel must be between 1 and 64")
		}
		c.Parallel = p
	case "out_dir":
		c.OutDir = value
	case "suffix":
		c.Suffix = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// GetTimeout returns the configured timeout for the given operation, or the default if not set.
// Valid names: "fetch", "transform", "batch"
func (c *Config) GetTimeout(name string) time.Duration {
	var configValue string
	var defaultValue time.Duration

	switch name {
	case "fetch":
		configValue = c.Timeouts.Fetch
		defaultValue = DefaultFetchTimeout
	case "transform":
		configValue = c.Timeouts.Transform
		defaultValue = DefaultTransformTimeout
	case "batch":
		configValue = c.Timeouts.Batch
		defaultValue = DefaultBatchTimeout
	default:
		return DefaultTransformTimeout
	}

	if configValue == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(configValue)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// ParseBackground parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading # is
// optional). Empty, "none" and "transparent" yield nil, meaning transparent.
func ParseBackground(value string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "none", "transparent":
		return nil, nil
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}

	alpha := uint8(255)
	if len(v) == 9 {
		a, err := strconv.ParseUint(v[7:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid background colour %q", value)
		}
		alpha = uint8(a)
		v = v[:7]
	}
	if len(v) != 4 && len(v) != 7 {
		return nil, fmt.Errorf("invalid background colour %q", value)
	}

	c, err := colorful.Hex(v)
	if err != nil {
		return nil, fmt.Errorf("invalid background colour %q: %w", value, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}
