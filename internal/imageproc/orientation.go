package imageproc

import (
	"bytes"
	"encoding/binary"
	"image"

	"github.com/disintegration/imaging"
)

const (
	tagOrientation = 0x0112
	typeShort      = 3
)

// containerOrientation returns the EXIF orientation stored in a TIFF or WebP
// upload, or 0 when there is none. imaging only reads it from JPEG.
func containerOrientation(data []byte) int {
	switch {
	case isTIFF(data):
		return tiffOrientation(data)
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return webpOrientation(data[12:])
	}
	return 0
}

func isTIFF(b []byte) bool {
	return len(b) >= 8 && (string(b[:4]) == "II*\x00" || string(b[:4]) == "MM\x00*")
}

// tiffOrientation scans IFD0 for the orientation tag.
func tiffOrientation(b []byte) int {
	var order binary.ByteOrder = binary.LittleEndian
	if b[0] == 'M' {
		order = binary.BigEndian
	}

	off := int(order.Uint32(b[4:8]))
	if off < 8 || off+2 > len(b) {
		return 0
	}

	n := int(order.Uint16(b[off:]))
	for i := 0; i < n; i++ {
		e := off + 2 + i*12
		if e+12 > len(b) {
			return 0
		}
		if order.Uint16(b[e:]) != tagOrientation {
			continue
		}
		if order.Uint16(b[e+2:]) != typeShort {
			return 0
		}
		if v := int(order.Uint16(b[e+8:])); v >= 1 && v <= 8 {
			return v
		}
		return 0
	}
	return 0
}

// webpOrientation walks the RIFF chunks looking for an EXIF chunk.
func webpOrientation(b []byte) int {
	for len(b) >= 8 {
		id := string(b[:4])
		size := int(binary.LittleEndian.Uint32(b[4:8]))
		if size < 0 || size > len(b)-8 {
			return 0
		}
		if id == "EXIF" {
			payload := bytes.TrimPrefix(b[8:8+size], []byte("Exif\x00\x00"))
			if !isTIFF(payload) {
				return 0
			}
			return tiffOrientation(payload)
		}
		size += size & 1
		if 8+size > len(b) {
			return 0
		}
		b = b[8+size:]
	}
	return 0
}

// orient applies an EXIF orientation value to img.
func orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
