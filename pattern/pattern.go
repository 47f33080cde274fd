// Package pattern decodes figure assets into tile groups.
// SVG figures contribute one tile per rect element, raster images are pixelated onto a grid
// and contribute one tile per opaque grid cell.
package pattern

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrNoTiles is returned when an asset decodes to zero tiles
	ErrNoTiles = errors.New("asset contains no tiles")
	// ErrUnsupportedFormat is returned for file extensions with no decoder
	ErrUnsupportedFormat = errors.New("unsupported asset format")
)

// Format identifies an asset decoder
type Format int

const (
	FormatUnknown Format = iota
	FormatSVG
	FormatRaster
)

// String implements fmt.Stringer
func (f Format) String() string {
	switch f {
	case FormatSVG:
		return "svg"
	case FormatRaster:
		return "raster"
	default:
		return "unknown"
	}
}

// FormatOf maps a file name to its decoder by extension
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".svg":
		return FormatSVG
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp":
		return FormatRaster
	default:
		return FormatUnknown
	}
}

// Supported reports whether the file name has a known decoder
func Supported(name string) bool {
	return FormatOf(name) != FormatUnknown
}

// BaseName returns the file name without directory and extension
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
