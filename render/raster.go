package render

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// DefaultExportScale is the output pixels per stage column
const DefaultExportScale = 8

// Rasterizer draws the stage into images, one figure per slot on a single row
// Figures are FigureWidth*scale pixels wide, separated and framed by FigureGap*scale pixels
type Rasterizer struct {
	stage *Stage
	scale int
	bg    colorful.Color
}

// NewRasterizer creates a rasterizer for stage at scale pixels per stage column
func NewRasterizer(stage *Stage, scale int, bg colorful.Color) *Rasterizer {
	if scale <= 0 {
		scale = DefaultExportScale
	}
	return &Rasterizer{stage: stage, scale: scale, bg: bg}
}

// slot is one figure's pixel placement
type slot struct {
	group  tile.Group
	x, y   float64
	factor float64 // pixels per figure unit
}

func (r *Rasterizer) plan() ([]slot, int, int) {
	groups := r.stage.Groups()
	figW := float64(r.stage.FigureWidth() * r.scale)
	gap := float64(FigureGap * r.scale)

	slots := make([]slot, 0, len(groups))
	x, maxH := gap, 0.0
	for _, g := range groups {
		if g.Width <= 0 || g.Height <= 0 {
			continue
		}
		factor := figW / g.Width
		slots = append(slots, slot{group: g, x: x, y: gap, factor: factor})
		x += figW + gap
		maxH = max(maxH, g.Height*factor)
	}
	if len(slots) == 0 {
		return nil, int(2 * gap), int(2 * gap)
	}
	return slots, int(math.Ceil(x)), int(math.Ceil(maxH + 2*gap))
}

// Size returns the output image dimensions
func (r *Rasterizer) Size() (int, int) {
	_, w, h := r.plan()
	return w, h
}

// Render draws the background and every visible tile
func (r *Rasterizer) Render() (image.Image, error) {
	dc, err := r.draw()
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// WritePNG renders one frame and encodes it as PNG
func (r *Rasterizer) WritePNG(w io.Writer) error {
	dc, err := r.draw()
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

func (r *Rasterizer) draw() (*gg.Context, error) {
	slots, w, h := r.plan()

	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.RGB(r.bg.R, r.bg.G, r.bg.B))

	for _, s := range slots {
		for _, rect := range s.group.Rects() {
			if !rect.Visible() || rect.Alpha <= 0 {
				continue
			}
			c := rect.Color.Clamped()
			dc.SetRGBA(c.R, c.G, c.B, min(rect.Alpha, 1))
			dc.DrawRectangle(s.x+rect.X*s.factor, s.y+rect.Y*s.factor, rect.Width*s.factor, rect.Height*s.factor)
			if err := dc.Fill(); err != nil {
				dc.Close()
				return nil, fmt.Errorf("fill %s: %w", s.group.Name, err)
			}
		}
	}

	if err := dc.FlushGPU(); err != nil {
		dc.Close()
		return nil, fmt.Errorf("flush: %w", err)
	}
	return dc, nil
}
