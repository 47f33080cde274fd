// Command reveal-export renders the pixel reveal headlessly to PNG frames or an animated GIF.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/lixenwraith/pixel-reveal/config"
	"github.com/lixenwraith/pixel-reveal/content"
)

const defaultConfigPath = "pixel-reveal.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Config file (YAML); missing default file is ignored")
	assets := flag.String("assets", "", "Figure directory, overrides stage.assets_dir")
	format := flag.String("format", "", "Output format: png or gif")
	out := flag.String("out", "", "Output directory")
	scale := flag.Int("scale", 0, "Pixels per stage column")
	fps := flag.Int("fps", 0, "Frames per second of reveal time")
	seed := flag.Uint64("seed", 0, "Shuffle seed, 0 for random")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if errors.Is(err, fs.ErrNotExist) && *configPath == defaultConfigPath {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			cfg.Stage.AssetsDir = *assets
			cfg.Stage.Figures = nil
		case "format":
			cfg.Export.Format = *format
		case "out":
			cfg.Export.Dir = *out
		case "scale":
			cfg.Export.Scale = *scale
		case "fps":
			cfg.Export.FPS = *fps
		case "seed":
			cfg.Reveal.Seed = *seed
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	manager := content.NewManager(cfg.Stage.AssetsDir, cfg.Stage.GridColumns, logger)
	if len(cfg.Stage.Figures) > 0 {
		sources := make([]content.Source, 0, len(cfg.Stage.Figures))
		for _, f := range cfg.Stage.Figures {
			sources = append(sources, content.Source{Name: f.Name, Path: f.Path, Caption: f.Caption})
		}
		manager.SetSources(sources)
	}
	groups, err := manager.LoadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load figures: %v\n", err)
		os.Exit(1)
	}

	res, err := export(groups, exportOptions{
		Dir:         cfg.Export.Dir,
		Format:      strings.ToLower(cfg.Export.Format),
		Scale:       cfg.Export.Scale,
		FigureWidth: cfg.Stage.FigureWidth,
		FrameDelay:  cfg.FrameDelay(),
		Duration:    cfg.Reveal.Duration,
		SettleDelay: cfg.Reveal.SettleDelay,
		Seed:        cfg.Reveal.Seed,
		Background:  cfg.BackgroundColor(),
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d frames, %d pixels -> %s\n", res.Status, res.Frames, res.Tiles, res.Path)
}
