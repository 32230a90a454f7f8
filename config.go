package picfix

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"picfix/internal/encode"
	"picfix/internal/history"
)

// Config tunes a Session. Zero fields are replaced by defaults.
type Config struct {
	Display  DisplayConfig  `yaml:"display"`
	History  HistoryConfig  `yaml:"history"`
	Compress CompressConfig `yaml:"compress"`
	Encoder  EncoderConfig  `yaml:"encoder"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DisplayConfig bounds loaded images. Larger images are scaled down to fit.
type DisplayConfig struct {
	MaxWidth  int `yaml:"max_width"`
	MaxHeight int `yaml:"max_height"`
}

// HistoryConfig sizes the undo log.
type HistoryConfig struct {
	Capacity int  `yaml:"capacity"`
	Compress bool `yaml:"compress"` // zstd-pack committed rasters
}

// CompressConfig tunes the target-size quality search.
type CompressConfig struct {
	InitialQuality float64 `yaml:"initial_quality"`
	MinQuality     float64 `yaml:"min_quality"`
	MaxQuality     float64 `yaml:"max_quality"`
	MaxIterations  int     `yaml:"max_iterations"`
	Tolerance      float64 `yaml:"tolerance"`
}

// EncoderConfig selects the lossy encoder.
type EncoderConfig struct {
	Name   string `yaml:"name"`   // std | jpegli
	Chroma string `yaml:"chroma"` // 444 | 422 | 420, jpegli only
}

// MetricsConfig controls quality reports on compression proposals.
type MetricsConfig struct {
	Enabled    bool `yaml:"enabled"`
	Perceptual bool `yaml:"perceptual"` // butteraugli, slow
}

// DefaultConfig returns the settings of the browser editor: 1200×800 display
// bound, 20 undo steps, quality search from 0.9 in [0.1, 1.0].
func DefaultConfig() Config {
	var c Config
	c.applyDefaults()
	return c
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("picfix: parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Display.MaxWidth <= 0 {
		c.Display.MaxWidth = 1200
	}
	if c.Display.MaxHeight <= 0 {
		c.Display.MaxHeight = 800
	}
	if c.History.Capacity <= 0 {
		c.History.Capacity = history.DefaultCapacity
	}
	def := encode.DefaultSearch()
	if c.Compress.InitialQuality <= 0 {
		c.Compress.InitialQuality = def.InitialQuality
	}
	if c.Compress.MinQuality <= 0 {
		c.Compress.MinQuality = def.MinQuality
	}
	if c.Compress.MaxQuality <= 0 {
		c.Compress.MaxQuality = def.MaxQuality
	}
	if c.Compress.MaxIterations <= 0 {
		c.Compress.MaxIterations = def.MaxIterations
	}
	if c.Compress.Tolerance <= 0 {
		c.Compress.Tolerance = def.Tolerance
	}
	if c.Encoder.Name == "" {
		c.Encoder.Name = "std"
	}
}

// Validate checks ranges that defaults cannot repair.
func (c Config) Validate() error {
	q := c.Compress
	if q.MinQuality > q.MaxQuality || q.MaxQuality > 1 {
		return fmt.Errorf("picfix: quality range [%v, %v] invalid", q.MinQuality, q.MaxQuality)
	}
	if q.InitialQuality < q.MinQuality || q.InitialQuality > q.MaxQuality {
		return fmt.Errorf("picfix: initial quality %v outside [%v, %v]", q.InitialQuality, q.MinQuality, q.MaxQuality)
	}
	if _, err := encode.New(c.Encoder.Name, c.Encoder.Chroma); err != nil {
		return err
	}
	return nil
}

func (c Config) search() encode.Search {
	return encode.Search{
		InitialQuality: c.Compress.InitialQuality,
		MinQuality:     c.Compress.MinQuality,
		MaxQuality:     c.Compress.MaxQuality,
		MaxIterations:  c.Compress.MaxIterations,
		Tolerance:      c.Compress.Tolerance,
	}
}
