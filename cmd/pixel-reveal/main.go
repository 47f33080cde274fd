// Command pixel-reveal plays the randomized pixel reveal of the figure set in the terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/pixel-reveal/audio"
	"github.com/lixenwraith/pixel-reveal/config"
	"github.com/lixenwraith/pixel-reveal/content"
	"github.com/lixenwraith/pixel-reveal/core"
	"github.com/lixenwraith/pixel-reveal/engine"
	"github.com/lixenwraith/pixel-reveal/render"
	"github.com/lixenwraith/pixel-reveal/service"
	"github.com/lixenwraith/pixel-reveal/status"
)

const defaultConfigPath = "pixel-reveal.yaml"

var (
	configFlag   = flag.String("config", defaultConfigPath, "Config file (YAML); missing default file is ignored")
	assetsFlag   = flag.String("assets", "", "Figure directory, overrides stage.assets_dir")
	durationFlag = flag.Duration("duration", 0, "Reveal duration, overrides reveal.duration")
	colorFlag    = flag.String("color", "", "Color mode: auto, truecolor, 256")
	muteFlag     = flag.Bool("mute", false, "Start with audio cues muted")
	debugFlag    = flag.Bool("debug", false, "Write debug logs to logs/pixel-reveal.log")
	seedFlag     = flag.Uint64("seed", 0, "Shuffle seed, 0 for random")
)

func main() {
	// Panic Recovery: Ensure terminal is reset even if the reveal crashes
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	flag.Parse()

	logger, logFile := setupLogging(*debugFlag)
	if logFile != nil {
		defer logFile.Close()
	}

	cfg, err := loadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "pixel-reveal: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to defaults when the default file is absent
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}

// applyFlags overrides config values with explicitly set flags
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			cfg.Stage.AssetsDir = *assetsFlag
			cfg.Stage.Figures = nil
		case "duration":
			cfg.Reveal.Duration = *durationFlag
		case "color":
			cfg.Display.Color = *colorFlag
		case "seed":
			cfg.Reveal.Seed = *seedFlag
		}
	})
}

func sourcesFrom(figures []config.FigureConfig) []content.Source {
	if len(figures) == 0 {
		return nil
	}
	sources := make([]content.Source, 0, len(figures))
	for _, f := range figures {
		sources = append(sources, content.Source{Name: f.Name, Path: f.Path, Caption: f.Caption})
	}
	return sources
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Services: status first, content and audio depend on nothing else
	hub := service.NewHub(logger)
	statusSvc := status.NewService()
	contentSvc := content.NewService(logger)
	audioSvc := audio.NewService(nil, logger)
	for _, svc := range []service.Service{statusSvc, contentSvc, audioSvc} {
		if err := hub.Register(svc); err != nil {
			return err
		}
	}

	reg := statusSvc.Registry()
	args := map[string][]any{
		"content": {cfg.Stage.AssetsDir, cfg.Stage.GridColumns, sourcesFrom(cfg.Stage.Figures)},
		"audio":   {*muteFlag, cfg.Audio.Volume, reg, cfg.Audio.Enabled},
	}
	if err := hub.InitAll(args); err != nil {
		return err
	}
	if err := hub.StartAll(); err != nil {
		return err
	}
	defer hub.StopAll()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	core.SetResetHook(screen.Fini)
	defer func() {
		core.SetResetHook(nil)
		screen.Fini()
	}()
	screen.HideCursor()

	stage := render.NewStage(contentSvc.Figures(), cfg.Stage.FigureWidth)
	view := render.NewTerminal(screen, stage, render.ParseColorMode(cfg.Display.Color), cfg.BackgroundColor())
	logger.Info("terminal ready", "view", view.Describe())

	loop := engine.NewFrameLoop(nil, cfg.Reveal.FrameInterval, reg)
	title := cfg.Title()
	statusLine := reg.Status()
	progress := reg.Floats.Get(status.KeyProgress)
	muted := reg.Bools.Get(status.KeyMuted)
	loop.SetFrameHook(func(time.Time) {
		view.Draw(render.HUD{
			Title:    title,
			Status:   statusLine.Load(),
			Progress: progress.Get(),
			Muted:    muted.Load(),
		})
	})

	opts := []engine.Option{
		engine.WithDuration(cfg.Reveal.Duration),
		engine.WithSettleDelay(cfg.Reveal.SettleDelay),
		engine.WithLogger(logger),
		engine.WithMetrics(reg),
		engine.WithOnRun(func() { audioSvc.Play(audio.CueStart) }),
		engine.WithOnComplete(func() { audioSvc.Play(audio.CueDone) }),
	}
	if cfg.Reveal.Seed != 0 {
		opts = append(opts, engine.WithSeed(cfg.Reveal.Seed))
	}
	eng := engine.New(stage, loop, statusLine, opts...)

	loop.Start()
	defer loop.Stop()
	loop.Post(eng.Start)

	events := make(chan tcell.Event, 100)
	core.Go(func() {
		for {
			ev := screen.PollEvent()
			events <- ev
			if ev == nil {
				return
			}
		}
	})

	a := &app{
		screen:  screen,
		loop:    loop,
		engine:  eng,
		audio:   audioSvc,
		figures: contentSvc,
		stage:   stage,
		logger:  logger,
	}
	a.run(events)

	logger.Info("exiting", "metrics", reg)
	return nil
}
