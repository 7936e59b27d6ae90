// Package imageproc turns uploaded image bytes into the canonical pixel
// layout consumed by the face embedding extractor.
package imageproc

import (
	"image"
	"image/color"
)

const (
	// CanonicalSize is the width and height of every normalized image.
	CanonicalSize = 640
	// Channels is the number of interleaved color channels (R, G, B).
	Channels = 3
)

// ColorMode names the channel layout requested from the normalizer.
type ColorMode string

const ModeRGB ColorMode = "RGB"

// RawImage is an undecoded upload. FormatHint is informational (content type
// or file extension) since decoding sniffs the magic bytes.
type RawImage struct {
	Data       []byte
	FormatHint string
}

// Image is a normalized, orientation-corrected RGB image. Pix holds the
// pixels row by row, three bytes per pixel.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

func newImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Stride is the number of bytes per row.
func (m *Image) Stride() int {
	return m.Width * Channels
}

// RGB returns the channels of the pixel at (x, y).
func (m *Image) RGB(x, y int) (r, g, b uint8) {
	i := y*m.Stride() + x*Channels
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// ColorModel, Bounds and At let an Image be passed to the standard encoders.
func (m *Image) ColorModel() color.Model {
	return color.RGBAModel
}

func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

func (m *Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := m.RGB(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// toRGBA expands the packed pixels into an opaque *image.RGBA, the layout
// the standard JPEG encoder has a fast path for.
func (m *Image) toRGBA() *image.RGBA {
	dst := image.NewRGBA(m.Bounds())
	for i, j := 0, 0; i < len(m.Pix); i, j = i+Channels, j+4 {
		dst.Pix[j] = m.Pix[i]
		dst.Pix[j+1] = m.Pix[i+1]
		dst.Pix[j+2] = m.Pix[i+2]
		dst.Pix[j+3] = 0xff
	}
	return dst
}
