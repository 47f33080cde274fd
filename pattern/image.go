package pattern

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// AlphaThreshold is the minimum sampled alpha (0-0xffff) for a grid cell to become a tile
const AlphaThreshold = 0x8000

// GridSize returns the pixelation grid for a source image of srcW x srcH at the given column count
// Grid cells are square in figure units, terminal aspect correction happens at render time
func GridSize(srcW, srcH, cols int) (outW, outH int) {
	if srcW <= 0 || srcH <= 0 || cols <= 0 {
		return 0, 0
	}
	if cols > srcW {
		cols = srcW
	}
	outW = cols
	outH = int(float64(cols)*float64(srcH)/float64(srcW) + 0.5)
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// FromImage pixelates img onto a grid cols wide and returns one 1x1 tile per opaque cell
// Tiles are ordered row-major
func FromImage(img image.Image, cols int, name string) (tile.Group, error) {
	if img == nil {
		return tile.Group{Name: name}, ErrNoTiles
	}
	b := img.Bounds()
	outW, outH := GridSize(b.Dx(), b.Dy(), cols)
	if outW == 0 {
		return tile.Group{Name: name}, ErrNoTiles
	}

	grid := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	draw.NearestNeighbor.Scale(grid, grid.Bounds(), img, b, draw.Src, nil)

	group := tile.Group{
		Name:   name,
		Width:  float64(outW),
		Height: float64(outH),
		Tiles:  make([]tile.Tile, 0, outW*outH),
	}

	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			px := grid.At(x, y)
			_, _, _, a := px.RGBA()
			if a < AlphaThreshold {
				continue
			}
			c, ok := colorful.MakeColor(px)
			if !ok {
				continue
			}
			r := tile.NewRect(float64(x), float64(y), 1, 1, c)
			r.Alpha = float64(a) / 0xffff
			group.Tiles = append(group.Tiles, r)
		}
	}

	if len(group.Tiles) == 0 {
		return group, ErrNoTiles
	}
	return group, nil
}
