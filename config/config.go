// Package config loads the reveal configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only supported config file version
const CurrentVersion = 1

// ErrUnsupportedVersion is returned for config files of another version
var ErrUnsupportedVersion = errors.New("unsupported config version")

// Config is the complete application configuration
type Config struct {
	Version int           `yaml:"version"`
	Reveal  RevealConfig  `yaml:"reveal"`
	Stage   StageConfig   `yaml:"stage"`
	Display DisplayConfig `yaml:"display"`
	Audio   AudioConfig   `yaml:"audio"`
	Export  ExportConfig  `yaml:"export"`
}

// RevealConfig controls the engine timing
type RevealConfig struct {
	Duration      time.Duration `yaml:"duration"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	Seed          uint64        `yaml:"seed"` // 0 picks a random seed per process
}

// FigureConfig names one figure file explicitly
type FigureConfig struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Caption string `yaml:"caption"`
}

// StageConfig controls figure discovery and layout
type StageConfig struct {
	AssetsDir   string         `yaml:"assets_dir"`
	Figures     []FigureConfig `yaml:"figures"`
	GridColumns int            `yaml:"grid_columns"` // raster images are pixelated to this many columns
	FigureWidth int            `yaml:"figure_width"` // terminal columns per figure
	Title       string         `yaml:"title"`
}

// DisplayConfig controls terminal colours
type DisplayConfig struct {
	Color      string `yaml:"color"` // auto, truecolor, 256
	Background string `yaml:"background"`
}

// AudioConfig controls the start and completion cues
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"` // false never opens the audio device; -mute only mutes
	Volume  float64 `yaml:"volume"`
}

// ExportConfig controls headless frame export
type ExportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // png or gif
	Scale  int    `yaml:"scale"`  // output pixels per stage column
	FPS    int    `yaml:"fps"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Reveal: RevealConfig{
			Duration:      5 * time.Second,
			SettleDelay:   150 * time.Millisecond,
			FrameInterval: 16 * time.Millisecond,
		},
		Stage: StageConfig{
			AssetsDir:   "./assets",
			GridColumns: 48,
			FigureWidth: 30,
			Title:       "Pixel reveal",
		},
		Display: DisplayConfig{
			Color:      "auto",
			Background: "#1a1a1a",
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.4,
		},
		Export: ExportConfig{
			Dir:    "./frames",
			Format: "png",
			Scale:  8,
			FPS:    20,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result
// Keys absent from the document keep their default values
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, cfg.Version)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error

	if c.Reveal.Duration <= 0 {
		errs = append(errs, fmt.Errorf("reveal.duration must be positive, got %v", c.Reveal.Duration))
	}
	if c.Reveal.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("reveal.settle_delay must not be negative, got %v", c.Reveal.SettleDelay))
	}
	if c.Reveal.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("reveal.frame_interval must be positive, got %v", c.Reveal.FrameInterval))
	}
	if c.Stage.GridColumns < 1 {
		errs = append(errs, fmt.Errorf("stage.grid_columns must be at least 1, got %d", c.Stage.GridColumns))
	}
	if c.Stage.FigureWidth < 4 {
		errs = append(errs, fmt.Errorf("stage.figure_width must be at least 4, got %d", c.Stage.FigureWidth))
	}
	for i, f := range c.Stage.Figures {
		if f.Path == "" {
			errs = append(errs, fmt.Errorf("stage.figures[%d].path is required", i))
		}
	}

	switch c.Display.Color {
	case "auto", "truecolor", "256":
	default:
		errs = append(errs, fmt.Errorf("display.color must be auto, truecolor or 256, got %q", c.Display.Color))
	}
	if _, err := colorful.Hex(c.Display.Background); err != nil {
		errs = append(errs, fmt.Errorf("display.background: %w", err))
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be in [0,1], got %v", c.Audio.Volume))
	}

	switch strings.ToLower(c.Export.Format) {
	case "png", "gif":
	default:
		errs = append(errs, fmt.Errorf("export.format must be png or gif, got %q", c.Export.Format))
	}
	if c.Export.Scale < 1 {
		errs = append(errs, fmt.Errorf("export.scale must be at least 1, got %d", c.Export.Scale))
	}
	if c.Export.FPS < 1 {
		errs = append(errs, fmt.Errorf("export.fps must be at least 1, got %d", c.Export.FPS))
	}

	return errors.Join(errs...)
}

// BackgroundColor returns the parsed background, falling back to the default on error
func (c *Config) BackgroundColor() colorful.Color {
	col, err := colorful.Hex(c.Display.Background)
	if err != nil {
		col, _ = colorful.Hex(Default().Display.Background)
	}
	return col
}

// Title returns the stage title with the duration, e.g. "Pixel reveal (5s)"
func (c *Config) Title() string {
	title := c.Stage.Title
	if title == "" {
		title = Default().Stage.Title
	}
	return fmt.Sprintf("%s (%s)", title, formatSeconds(c.Reveal.Duration))
}

// FrameDelay returns the export frame spacing derived from FPS
func (c *Config) FrameDelay() time.Duration {
	if c.Export.FPS < 1 {
		return time.Second / time.Duration(Default().Export.FPS)
	}
	return time.Second / time.Duration(c.Export.FPS)
}

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
