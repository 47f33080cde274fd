// Package tile defines the revealable unit the engine works on and the collector
// that flattens figure groups into a single tile list.
package tile

import (
	"sync/atomic"

	"github.com/lucasb-eyer/go-colorful"
)

// Tile is anything that can be shown and hidden
// The engine only references tiles, it never creates or destroys them
type Tile interface {
	Hide()
	Reveal()
}

// Group is the set of tiles sharing one source image
// Width and Height are the figure extent in the same units as the tile geometry
type Group struct {
	Name    string
	Caption string
	Width   float64
	Height  float64
	Tiles   []Tile
}

// Len returns the number of tiles in the group
func (g Group) Len() int {
	return len(g.Tiles)
}

// Collect flattens groups into one slice, preserving group order and in-group order
// Zero groups or groups without tiles yield an empty slice
func Collect(groups []Group) []Tile {
	total := 0
	for _, g := range groups {
		total += len(g.Tiles)
	}

	tiles := make([]Tile, 0, total)
	for _, g := range groups {
		tiles = append(tiles, g.Tiles...)
	}
	return tiles
}

// Rect is a rectangular tile with a solid fill
// Geometry is expressed in figure units (SVG user units or source pixels)
type Rect struct {
	X, Y          float64
	Width, Height float64
	Color         colorful.Color
	Alpha         float64

	// Written by the engine, read by renderers
	visible atomic.Bool
}

// NewRect creates a hidden rect tile with full opacity
func NewRect(x, y, w, h float64, c colorful.Color) *Rect {
	return &Rect{
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		Color:  c,
		Alpha:  1,
	}
}

// Hide implements Tile
func (r *Rect) Hide() {
	r.visible.Store(false)
}

// Reveal implements Tile, revealing a visible rect is a no-op
func (r *Rect) Reveal() {
	r.visible.Store(true)
}

// Visible reports the current visibility
func (r *Rect) Visible() bool {
	return r.visible.Load()
}

// Bounds returns the rect extent as min/max corners
func (r *Rect) Bounds() (x0, y0, x1, y1 float64) {
	return r.X, r.Y, r.X + r.Width, r.Y + r.Height
}

// Rects returns the group tiles that are *Rect, skipping other implementations
func (g Group) Rects() []*Rect {
	rects := make([]*Rect, 0, len(g.Tiles))
	for _, t := range g.Tiles {
		if r, ok := t.(*Rect); ok {
			rects = append(rects, r)
		}
	}
	return rects
}
