// Package imageio encodes the heightmap renderer's depth and normal
// images to PNG, in the teacher's small single-purpose encode-function
// style (render/stl.go's WriteSTL: one function per format, a plain
// io.Writer sink, errors returned unwrapped).
package imageio

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/vxlcast/heightmap/heightmap"
)

// WriteDepthPNG encodes d as a 16-bit grayscale PNG. Finite depths are
// linearly mapped so the minimum observed depth is black (0) and the
// maximum is white (65535); pixels that were never written (negative
// infinity) are mapped to black as well, since they carry no surface.
func WriteDepthPNG(w io.Writer, d *heightmap.DepthImage) error {
	rows, cols := d.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("imageio: empty depth image")
	}
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			z := d.At(row, col)
			if math.IsInf(float64(z), -1) {
				continue
			}
			if z < lo {
				lo = z
			}
			if z > hi {
				hi = z
			}
		}
	}
	span := hi - lo
	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			z := d.At(row, col)
			var v uint16
			if !math.IsInf(float64(z), -1) && span > 0 {
				v = uint16(65535 * (z - lo) / span)
			}
			img.SetGray16(col, row, color.Gray16{Y: v})
		}
	}
	return png.Encode(w, img)
}

// WriteNormalPNG encodes n as an RGBA PNG, unpacking each
// 0xAA_ZZ_YY_XX word into its R=X, G=Y, B=Z, A=AA channels (alpha is
// 0xFF for every written normal and 0 for pixels never written).
func WriteNormalPNG(w io.Writer, n *heightmap.NormalImage) error {
	rows, cols := n.Dims()
	if rows == 0 || cols == 0 {
		return errors.New("imageio: empty normal image")
	}
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			px := n.At(row, col)
			img.SetNRGBA(col, row, color.NRGBA{
				R: uint8(px),
				G: uint8(px >> 8),
				B: uint8(px >> 16),
				A: uint8(px >> 24),
			})
		}
	}
	return png.Encode(w, img)
}
