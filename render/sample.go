package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// Raster is a figure resampled onto a square sub-pixel grid
// Only visible tiles contribute; unset cells show the background
type Raster struct {
	Cols, Rows int
	Color      []colorful.Color
	Set        []bool
}

// At returns the colour at (x, y) and whether any visible tile covers it
func (r *Raster) At(x, y int) (colorful.Color, bool) {
	if x < 0 || y < 0 || x >= r.Cols || y >= r.Rows {
		return colorful.Color{}, false
	}
	i := y*r.Cols + x
	return r.Color[i], r.Set[i]
}

// Coverage returns the number of set sub-pixels
func (r *Raster) Coverage() int {
	n := 0
	for _, s := range r.Set {
		if s {
			n++
		}
	}
	return n
}

// Resample paints the visible rects of g onto a cols x rows grid, scale figure units per sub-pixel
// A sub-pixel takes the colour of the last rect covering its centre, composited over bg by alpha
// Rects too small to cover any centre still paint the sub-pixel holding their own centre
func Resample(g tile.Group, cols, rows int, scale float64, bg colorful.Color) *Raster {
	r := &Raster{
		Cols:  cols,
		Rows:  rows,
		Color: make([]colorful.Color, cols*rows),
		Set:   make([]bool, cols*rows),
	}
	if cols <= 0 || rows <= 0 || scale <= 0 {
		return r
	}

	for _, rect := range g.Rects() {
		if !rect.Visible() || rect.Alpha <= 0 {
			continue
		}
		x0, y0, x1, y1 := rect.Bounds()

		c0 := max(int(math.Floor(x0/scale)), 0)
		c1 := min(int(math.Ceil(x1/scale)), cols)
		r0 := max(int(math.Floor(y0/scale)), 0)
		r1 := min(int(math.Ceil(y1/scale)), rows)

		painted := false
		for cy := r0; cy < r1; cy++ {
			center := (float64(cy) + 0.5) * scale
			if center < y0 || center >= y1 {
				continue
			}
			for cx := c0; cx < c1; cx++ {
				center := (float64(cx) + 0.5) * scale
				if center < x0 || center >= x1 {
					continue
				}
				r.paint(cx, cy, rect.Color, rect.Alpha, bg)
				painted = true
			}
		}

		if !painted {
			cx := int((x0 + x1) / 2 / scale)
			cy := int((y0 + y1) / 2 / scale)
			if cx >= 0 && cy >= 0 && cx < cols && cy < rows {
				r.paint(cx, cy, rect.Color, rect.Alpha, bg)
			}
		}
	}
	return r
}

func (r *Raster) paint(x, y int, c colorful.Color, alpha float64, bg colorful.Color) {
	i := y*r.Cols + x
	under := bg
	if r.Set[i] {
		under = r.Color[i]
	}
	r.Color[i] = Composite(c, alpha, under)
	r.Set[i] = true
}
