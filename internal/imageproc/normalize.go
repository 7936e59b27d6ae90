package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	// Extra decoders registered with image.Decode.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNormalizationFailed wraps every decode, convert or resize failure.
var ErrNormalizationFailed = errors.New("image normalization failed")

// areaKernel averages every source pixel under the destination pixel. The
// scaler stretches the kernel support by the downscale factor, so a box of
// half-width 0.5 covers exactly the source area of one output pixel.
var areaKernel = &draw.Kernel{
	Support: 0.5,
	At: func(t float64) float64 {
		return 1
	},
}

// MaxPixels caps the declared width times height of an upload. Decoders
// allocate the full pixel buffer before reading any image data.
const MaxPixels = 50_000_000

// Normalizer decodes uploads into fixed-size RGB images.
type Normalizer struct {
	size int
}

func NewNormalizer() *Normalizer {
	return &Normalizer{size: CanonicalSize}
}

// Normalize decodes raw, applies the EXIF orientation, drops alpha and
// resizes to the canonical square. It never panics: a decoder panic is
// reported as ErrNormalizationFailed.
func (n *Normalizer) Normalize(raw RawImage, mode ColorMode) (img *Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("%w: panic: %v", ErrNormalizationFailed, r)
		}
	}()

	if mode != ModeRGB {
		return nil, fmt.Errorf("%w: unsupported color mode %q", ErrNormalizationFailed, mode)
	}

	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrNormalizationFailed)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s header: %v", ErrNormalizationFailed, formatLabel(raw.FormatHint), err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrNormalizationFailed, cfg.Width, cfg.Height, MaxPixels)
	}

	src, err := imaging.Decode(bytes.NewReader(raw.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrNormalizationFailed, formatLabel(raw.FormatHint), err)
	}

	if o := containerOrientation(raw.Data); o > 1 {
		src = orient(src, o)
	}

	if src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrNormalizationFailed)
	}

	return n.resize(opaque(src)), nil
}

// opaque converts any color model to NRGBA and forces alpha to fully
// opaque, keeping the straight color channels as a plain RGB conversion does.
func opaque(src image.Image) *image.NRGBA {
	nrgba := imaging.Clone(src)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = 0xff
	}
	return nrgba
}

// resize scales to the canonical square without preserving aspect ratio.
// Shrinking uses area averaging; enlarging a small input has no area to
// average, so it falls back to bilinear interpolation.
func (n *Normalizer) resize(src *image.NRGBA) *Image {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, n.size, n.size))

	var scaler draw.Scaler = areaKernel
	if bounds.Dx() < n.size || bounds.Dy() < n.size {
		scaler = draw.BiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	out := newImage(n.size, n.size)
	for i, j := 0, 0; j < len(dst.Pix); i, j = i+Channels, j+4 {
		out.Pix[i] = dst.Pix[j]
		out.Pix[i+1] = dst.Pix[j+1]
		out.Pix[i+2] = dst.Pix[j+2]
	}
	return out
}

func formatLabel(hint string) string {
	if hint == "" {
		return "image"
	}
	return hint
}
