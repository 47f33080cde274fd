package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/engine"
	"github.com/lixenwraith/pixel-reveal/render"
	"github.com/lixenwraith/pixel-reveal/status"
	"github.com/lixenwraith/pixel-reveal/tile"
)

// finalHold keeps the completed picture on screen before a GIF loops
const finalHold = time.Second

// exportEpoch is the virtual start time; exported frames do not depend on the wall clock
var exportEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// frameSink receives rendered frames in order
type frameSink interface {
	Frame(r *render.Rasterizer, delay time.Duration) error
	Close() error
}

// pngSink writes one numbered PNG per frame
type pngSink struct {
	dir   string
	count int
}

func (s *pngSink) Frame(r *render.Rasterizer, _ time.Duration) error {
	path := filepath.Join(s.dir, fmt.Sprintf("frame-%04d.png", s.count))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("frame %d: %w", s.count, err)
	}
	s.count++
	return f.Close()
}

func (s *pngSink) Close() error { return nil }

// gifSink accumulates frames and writes reveal.gif on Close
type gifSink struct {
	path string
	anim *render.Animation
}

func (s *gifSink) Frame(r *render.Rasterizer, delay time.Duration) error {
	img, err := r.Render()
	if err != nil {
		return fmt.Errorf("frame %d: %w", s.anim.Len(), err)
	}
	s.anim.Add(img, delay)
	return nil
}

func (s *gifSink) Close() error {
	s.anim.Hold(finalHold)
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	if err := s.anim.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// exportOptions are the resolved export parameters
type exportOptions struct {
	Dir         string
	Format      string
	Scale       int
	FigureWidth int
	FrameDelay  time.Duration
	Duration    time.Duration
	SettleDelay time.Duration
	Seed        uint64
	Background  colorful.Color
}

// exportResult summarizes one export
type exportResult struct {
	Frames int
	Tiles  int
	Status string
	Path   string
}

func newSink(opts exportOptions, groups []tile.Group) (frameSink, string, error) {
	switch opts.Format {
	case "png":
		return &pngSink{dir: opts.Dir}, opts.Dir, nil
	case "gif":
		path := filepath.Join(opts.Dir, "reveal.gif")
		return &gifSink{path: path, anim: render.NewAnimation(groups, opts.Background)}, path, nil
	default:
		return nil, "", fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// export drives one reveal on virtual time and renders a frame after every step
// The first frame shows the hidden stage, the last shows the completed picture
func export(groups []tile.Group, opts exportOptions, logger *slog.Logger) (exportResult, error) {
	if opts.FrameDelay <= 0 {
		return exportResult{}, errors.New("frame delay must be positive")
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return exportResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	sink, path, err := newSink(opts, groups)
	if err != nil {
		return exportResult{}, err
	}

	stage := render.NewStage(groups, opts.FigureWidth)
	sched := engine.NewSteppedScheduler(exportEpoch)
	reg := status.NewRegistry()

	engOpts := []engine.Option{
		engine.WithDuration(opts.Duration),
		engine.WithSettleDelay(opts.SettleDelay),
		engine.WithTimeProvider(sched.Clock()),
		engine.WithLogger(logger),
		engine.WithMetrics(reg),
	}
	if opts.Seed != 0 {
		engOpts = append(engOpts, engine.WithSeed(opts.Seed))
	}
	eng := engine.New(stage, sched, reg.Status(), engOpts...)
	raster := render.NewRasterizer(stage, opts.Scale, opts.Background)

	eng.Start()

	// Settle delay plus the reveal window, with slack for the completing frame
	limit := int((opts.SettleDelay+opts.Duration)/opts.FrameDelay) + 4

	frames := 0
	for {
		if err := sink.Frame(raster, opts.FrameDelay); err != nil {
			return exportResult{}, err
		}
		frames++

		if eng.State() == engine.StateComplete || frames > limit {
			break
		}
		sched.Step(opts.FrameDelay)
	}

	if err := sink.Close(); err != nil {
		return exportResult{}, fmt.Errorf("failed to finish export: %w", err)
	}

	w, h := raster.Size()
	res := exportResult{
		Frames: frames,
		Tiles:  eng.Schedule().Len(),
		Status: reg.Status().Load(),
		Path:   path,
	}
	logger.Info("export finished",
		"format", opts.Format,
		"frames", res.Frames,
		"tiles", res.Tiles,
		"size", fmt.Sprintf("%dx%d", w, h),
		"status", res.Status,
	)
	return res, nil
}
