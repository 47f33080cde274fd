package render

import (
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// maxExactColors leaves room in the 256 entry palette for the Plan9 ramp
const maxExactColors = 192

// Animation accumulates frames for an animated GIF
// The palette holds the stage colours exactly, with Plan9 filling the rest for anti-aliased edges
type Animation struct {
	palette color.Palette
	frames  []*image.Paletted
	delays  []int
}

// NewAnimation builds the frame palette from the background and every tile colour in groups
func NewAnimation(groups []tile.Group, bg colorful.Color) *Animation {
	seen := make(map[color.RGBA]bool)
	var pal color.Palette

	add := func(c colorful.Color) {
		r, g, b := c.Clamped().RGB255()
		key := color.RGBA{R: r, G: g, B: b, A: 0xff}
		if seen[key] || len(pal) >= maxExactColors {
			return
		}
		seen[key] = true
		pal = append(pal, key)
	}

	add(bg)
	for _, g := range groups {
		for _, r := range g.Rects() {
			add(Composite(r.Color, r.Alpha, bg))
		}
	}
	for _, c := range palette.Plan9 {
		if len(pal) >= 256 {
			break
		}
		pal = append(pal, c)
	}

	return &Animation{palette: pal}
}

// Add quantizes img onto the palette and appends it with the given display time
func (a *Animation) Add(img image.Image, delay time.Duration) {
	b := img.Bounds()
	p := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), a.palette)
	draw.Draw(p, p.Bounds(), img, b.Min, draw.Src)
	a.frames = append(a.frames, p)
	a.delays = append(a.delays, max(int(delay/(10*time.Millisecond)), 1))
}

// Len returns the number of frames added
func (a *Animation) Len() int {
	return len(a.frames)
}

// Hold extends the display time of the last frame
func (a *Animation) Hold(extra time.Duration) {
	if len(a.delays) == 0 {
		return
	}
	a.delays[len(a.delays)-1] += int(extra / (10 * time.Millisecond))
}

// Encode writes the animation as a looping GIF
func (a *Animation) Encode(w io.Writer) error {
	if len(a.frames) == 0 {
		return errors.New("animation has no frames")
	}
	return gif.EncodeAll(w, &gif.GIF{
		Image:     a.frames,
		Delay:     a.delays,
		LoopCount: 0,
	})
}
