package texture

import (
	"image"
	"image/color"
	"image/draw"
)

// Fallback grid geometry. The renderer repeats the whole canvas every few
// world units, so one cell is a fraction of a unit.
const (
	GridSize  = 512 // canvas side in pixels
	GridCells = 8   // cells per side
	gridLine  = 2   // line width in pixels
)

var (
	gridBackground = color.RGBA{R: 0xf2, G: 0xf0, B: 0xeb, A: 0xff}
	gridLineColor  = color.RGBA{R: 0xc8, G: 0xc4, B: 0xbb, A: 0xff}
)

// GridTexture draws the procedural floor used when no image can be loaded:
// a light square canvas crossed by evenly spaced lines. The output depends
// only on its arguments.
func GridTexture(size, cells int) *image.RGBA {
	if size <= 0 {
		size = GridSize
	}
	if cells <= 0 {
		cells = GridCells
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: gridBackground}, image.Point{}, draw.Src)

	line := &image.Uniform{C: gridLineColor}
	for i := 0; i < cells; i++ {
		// Lines sit on the leading edge of each cell so the tile repeats seamlessly.
		p := i * size / cells
		draw.Draw(img, image.Rect(p, 0, p+gridLine, size), line, image.Point{}, draw.Src)
		draw.Draw(img, image.Rect(0, p, size, p+gridLine), line, image.Point{}, draw.Src)
	}
	return img
}
