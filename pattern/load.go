package pattern

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	// Raster decoders registered with image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/lixenwraith/pixel-reveal/tile"
)

// LoadFile decodes the asset at path into a group named after the file
func LoadFile(path string, cols int) (tile.Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return tile.Group{}, err
	}
	defer f.Close()

	return Decode(f, path, cols)
}

// Decode dispatches on the extension of name; cols only applies to raster images
func Decode(r io.Reader, name string, cols int) (tile.Group, error) {
	base := BaseName(name)

	switch FormatOf(name) {
	case FormatSVG:
		data, err := io.ReadAll(r)
		if err != nil {
			return tile.Group{}, err
		}
		return ParseSVG(bytes.NewReader([]byte(StripXMLDeclaration(string(data)))), base)

	case FormatRaster:
		img, _, err := image.Decode(r)
		if err != nil {
			return tile.Group{}, fmt.Errorf("decode %s: %w", name, err)
		}
		return FromImage(img, cols, base)

	default:
		return tile.Group{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}
