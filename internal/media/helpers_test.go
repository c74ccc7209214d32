package media

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"testing"

	"github.com/disintegration/imaging"
)

const (
	tiffASCII    = 2
	tiffShort    = 3
	tiffLong     = 4
	tiffRational = 5

	tagMake             = 0x010F
	tagModel            = 0x0110
	tagExifIFDPointer   = 0x8769
	tagExposureTime     = 0x829A
	tagFNumber          = 0x829D
	tagISOSpeedRatings  = 0x8827
	tagDateTimeOriginal = 0x9003
	tagFocalLength      = 0x920A
	tagPixelXDimension  = 0xA002
	tagPixelYDimension  = 0xA003
	tagLensModel        = 0xA434
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: tiffASCII, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, v uint16) ifdEntry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return ifdEntry{tag: tag, typ: tiffShort, count: 1, data: b}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return ifdEntry{tag: tag, typ: tiffLong, count: 1, data: b}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], num)
	binary.LittleEndian.PutUint32(b[4:], den)
	return ifdEntry{tag: tag, typ: tiffRational, count: 1, data: b}
}

// encodeIFD lays out one little-endian IFD that starts at offset within the
// TIFF stream. Values longer than four bytes follow the directory.
func encodeIFD(entries []ifdEntry, offset uint32) []byte {
	le := binary.LittleEndian
	dataOffset := offset + uint32(2+12*len(entries)+4)

	var dir, data bytes.Buffer
	_ = binary.Write(&dir, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(&dir, le, e.tag)
		_ = binary.Write(&dir, le, e.typ)
		_ = binary.Write(&dir, le, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			dir.Write(v)
			continue
		}
		_ = binary.Write(&dir, le, dataOffset+uint32(data.Len()))
		data.Write(e.data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(&dir, le, uint32(0))

	return append(dir.Bytes(), data.Bytes()...)
}

// buildExifTIFF returns a TIFF stream with IFD0 (make/model) and an Exif sub-IFD.
func buildExifTIFF(ifd0, exifIFD []ifdEntry) []byte {
	const ifd0Offset = 8

	withPointer := func(ptr uint32) []ifdEntry {
		return append(append([]ifdEntry{}, ifd0...), longEntry(tagExifIFDPointer, ptr))
	}

	// First pass sizes IFD0; the pointer value does not change its length
	exifOffset := uint32(ifd0Offset + len(encodeIFD(withPointer(0), ifd0Offset)))

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(ifd0Offset))
	buf.Write(encodeIFD(withPointer(exifOffset), ifd0Offset))
	buf.Write(encodeIFD(exifIFD, exifOffset))
	return buf.Bytes()
}

func testImage(width, height int) image.Image {
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 120, B: 200, A: 255})
	return img
}

// writeImage saves a solid image; the format follows the extension.
func writeImage(t *testing.T, path string, width, height int) {
	t.Helper()
	if err := imaging.Save(testImage(width, height), path); err != nil {
		t.Fatalf("Failed to save test image %s: %v", path, err)
	}
}

// writeExifJPEG saves a JPEG with an APP1 EXIF segment built from the entries.
func writeExifJPEG(t *testing.T, path string, width, height int, ifd0, exifIFD []ifdEntry) {
	t.Helper()

	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, testImage(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
	raw := encoded.Bytes()

	payload := append([]byte("Exif\x00\x00"), buildExifTIFF(ifd0, exifIFD)...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	segment = append(segment, payload...)

	var out bytes.Buffer
	out.Write(raw[:2]) // SOI
	out.Write(segment)
	out.Write(raw[2:])

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
