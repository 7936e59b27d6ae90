package imageproc

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

// exifIFD builds a TIFF header with a single IFD0 entry for the orientation.
func exifIFD(order binary.ByteOrder, orientation uint16) []byte {
	var b bytes.Buffer
	if order == binary.BigEndian {
		b.WriteString("MM\x00*")
	} else {
		b.WriteString("II*\x00")
	}
	binary.Write(&b, order, uint32(8))
	binary.Write(&b, order, uint16(1))
	binary.Write(&b, order, uint16(tagOrientation))
	binary.Write(&b, order, uint16(typeShort))
	binary.Write(&b, order, uint32(1))
	binary.Write(&b, order, orientation)
	binary.Write(&b, order, uint16(0))
	binary.Write(&b, order, uint32(0))
	return b.Bytes()
}

func riffChunk(id string, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString(id)
	binary.Write(&b, binary.LittleEndian, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func webpContainer(chunks ...[]byte) []byte {
	body := append([]byte("WEBP"), bytes.Join(chunks, nil)...)
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(len(body)))
	b.Write(body)
	return b.Bytes()
}

// withTIFFOrientation copies IFD0 of a little-endian TIFF to the end of the
// file with an orientation entry added, and points the header at the copy.
func withTIFFOrientation(t *testing.T, data []byte, orientation uint16) []byte {
	t.Helper()
	require.Equal(t, "II*\x00", string(data[:4]))
	le := binary.LittleEndian

	off := int(le.Uint32(data[4:8]))
	n := int(le.Uint16(data[off:]))
	entries := make([][]byte, 0, n+1)
	for i := 0; i < n; i++ {
		e := off + 2 + i*12
		entries = append(entries, append([]byte(nil), data[e:e+12]...))
	}
	tag := make([]byte, 12)
	le.PutUint16(tag[0:], tagOrientation)
	le.PutUint16(tag[2:], typeShort)
	le.PutUint32(tag[4:], 1)
	le.PutUint16(tag[8:], orientation)
	entries = append(entries, tag)
	sort.Slice(entries, func(i, j int) bool { return le.Uint16(entries[i]) < le.Uint16(entries[j]) })

	out := append([]byte(nil), data...)
	if len(out)%2 == 1 {
		out = append(out, 0)
	}
	newOff := len(out)
	out = le.AppendUint16(out, uint16(len(entries)))
	for _, e := range entries {
		out = append(out, e...)
	}
	out = le.AppendUint32(out, 0)
	le.PutUint32(out[4:8], uint32(newOff))
	return out
}

func TestContainerOrientation(t *testing.T) {
	exif := append([]byte("Exif\x00\x00"), exifIFD(binary.BigEndian, 8)...)

	tests := []struct {
		name string
		data []byte
		want int
	}{
		{"little endian tiff", exifIFD(binary.LittleEndian, 6), 6},
		{"big endian tiff", exifIFD(binary.BigEndian, 3), 3},
		{"out of range value", exifIFD(binary.LittleEndian, 9), 0},
		{"webp exif chunk after image chunk", webpContainer(riffChunk("VP8 ", []byte{1, 2, 3}), riffChunk("EXIF", exif)), 8},
		{"webp exif without prefix", webpContainer(riffChunk("EXIF", exifIFD(binary.LittleEndian, 5))), 5},
		{"webp without exif", webpContainer(riffChunk("VP8 ", []byte{1, 2})), 0},
		{"webp chunk size past end", append([]byte("RIFF\x00\x00\x00\x00WEBPEXIF\xff\xff\x00\x00"), 0), 0},
		{"truncated tiff", exifIFD(binary.LittleEndian, 6)[:12], 0},
		{"png", []byte("\x89PNG\r\n\x1a\n"), 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containerOrientation(tt.data))
		})
	}
}

func TestNormalizer_Normalize_AppliesTIFFOrientation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, splitRedBlue(1280, 720), nil))

	tests := []struct {
		name        string
		orientation uint16
		topRed      bool
	}{
		{"rotate 90 clockwise", 6, true},
		{"rotate 90 counter clockwise", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withTIFFOrientation(t, buf.Bytes(), tt.orientation)
			require.Equal(t, int(tt.orientation), containerOrientation(data))

			img, err := NewNormalizer().Normalize(RawImage{Data: data, FormatHint: "tiff"}, ModeRGB)
			require.NoError(t, err)

			top, bottom := isRed, isBlue
			if !tt.topRed {
				top, bottom = isBlue, isRed
			}
			r, g, b := img.RGB(320, 100)
			assert.True(t, top(r, g, b), "top got rgb(%d,%d,%d)", r, g, b)
			r, g, b = img.RGB(320, 540)
			assert.True(t, bottom(r, g, b), "bottom got rgb(%d,%d,%d)", r, g, b)
		})
	}
}
