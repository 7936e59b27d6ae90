package imageproc

import (
	"bytes"
	"fmt"
	"image/jpeg"
)

// EncodedImage is a scoped in-memory JPEG rendering of a normalized image.
// Bytes is only valid until Release.
type EncodedImage struct {
	buf *bytes.Buffer
}

// EncodeJPEG renders img as a JPEG at the default quality. The caller must
// call Release on the result once the bytes have been consumed.
func EncodeJPEG(img *Image) (*EncodedImage, error) {
	if img == nil || len(img.Pix) != img.Width*img.Height*Channels || img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("%w: invalid image buffer", ErrNormalizationFailed)
	}

	buf := new(bytes.Buffer)
	buf.Grow(img.Width * img.Height / 4)

	if err := jpeg.Encode(buf, img.toRGBA(), &jpeg.Options{Quality: jpeg.DefaultQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", ErrNormalizationFailed, err)
	}

	return &EncodedImage{buf: buf}, nil
}

func (e *EncodedImage) Bytes() []byte {
	if e == nil || e.buf == nil {
		return nil
	}
	return e.buf.Bytes()
}

func (e *EncodedImage) Len() int {
	if e == nil || e.buf == nil {
		return 0
	}
	return e.buf.Len()
}

// Release drops the buffer. It is safe to call more than once.
func (e *EncodedImage) Release() {
	if e == nil || e.buf == nil {
		return
	}
	e.buf.Reset()
	e.buf = nil
}

// Released reports whether Release has been called.
func (e *EncodedImage) Released() bool {
	return e == nil || e.buf == nil
}
