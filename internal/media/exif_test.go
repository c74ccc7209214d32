package media

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func fullCameraTags() ([]ifdEntry, []ifdEntry) {
	ifd0 := []ifdEntry{
		asciiEntry(tagMake, "Canon"),
		asciiEntry(tagModel, "Canon EOS 5D Mark III"),
	}
	exifIFD := []ifdEntry{
		rationalEntry(tagExposureTime, 10, 2000),
		rationalEntry(tagFNumber, 28, 10),
		shortEntry(tagISOSpeedRatings, 400),
		asciiEntry(tagDateTimeOriginal, "2018:01:01 12:17:12"),
		rationalEntry(tagFocalLength, 353, 10),
		longEntry(tagPixelXDimension, 4000),
		longEntry(tagPixelYDimension, 3000),
		asciiEntry(tagLensModel, "EF24-70mm f/2.8L II USM"),
	}
	return ifd0, exifIFD
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestExtract_AllTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "full.jpg")
	ifd0, exifIFD := fullCameraTags()
	writeExifJPEG(t, path, 8, 6, ifd0, exifIFD)

	got, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got.Width != 4000 || got.Height != 3000 {
		t.Errorf("dimensions = %dx%d, want 4000x3000 from tags", got.Width, got.Height)
	}
	if got.DimensionSource != SourceExif {
		t.Errorf("DimensionSource = %q, want %q", got.DimensionSource, SourceExif)
	}

	tests := []struct {
		field string
		got   *string
		want  string
	}{
		{"Created", got.Created, "2018-01-01 12:17:12"},
		{"FStop", got.FStop, "2.8"},
		{"FocalLength", got.FocalLength, "35"},
		{"ISO", got.ISO, "400"},
		{"ShutterSpeed", got.ShutterSpeed, "1/200"},
		{"Camera", got.Camera, "Canon Canon EOS 5D Mark III"},
		{"Lens", got.Lens, "EF24-70mm f/2.8L II USM"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if deref(tt.got) != tt.want {
				t.Errorf("%s = %q, want %q", tt.field, deref(tt.got), tt.want)
			}
		})
	}

	if got.GPSLat != nil || got.GPSLon != nil || got.GPSAltFt != nil {
		t.Error("GPS fields should always be nil")
	}
}

func TestExtract_DimensionFallback(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("JPEG with tags but no dimensions", func(t *testing.T) {
		path := filepath.Join(tmpDir, "nodims.jpg")
		writeExifJPEG(t, path, 64, 48,
			[]ifdEntry{asciiEntry(tagMake, "Nikon"), asciiEntry(tagModel, "D750")},
			[]ifdEntry{shortEntry(tagISOSpeedRatings, 100)})

		got, err := Extract(path)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if got.Width != 64 || got.Height != 48 {
			t.Errorf("dimensions = %dx%d, want 64x48 from decoding", got.Width, got.Height)
		}
		if got.DimensionSource != SourceDecode {
			t.Errorf("DimensionSource = %q, want %q", got.DimensionSource, SourceDecode)
		}
		if deref(got.ISO) != "100" {
			t.Errorf("ISO = %q, want 100", deref(got.ISO))
		}
	})

	t.Run("Only one dimension tag", func(t *testing.T) {
		path := filepath.Join(tmpDir, "halfdims.jpg")
		writeExifJPEG(t, path, 30, 20, nil,
			[]ifdEntry{longEntry(tagPixelXDimension, 4000)})

		got, err := Extract(path)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if got.Width != 30 || got.Height != 20 {
			t.Errorf("dimensions = %dx%d, want 30x20", got.Width, got.Height)
		}
	})

	formats := []struct {
		name string
		file string
	}{
		{"Plain JPEG", "plain.jpg"},
		{"PNG", "plain.png"},
		{"TIFF", "plain.tif"},
	}
	for _, f := range formats {
		t.Run(f.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, f.file)
			writeImage(t, path, 40, 30)

			got, err := Extract(path)
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if got.Width != 40 || got.Height != 30 {
				t.Errorf("dimensions = %dx%d, want 40x30", got.Width, got.Height)
			}
			if got.Created != nil || got.Camera != nil || got.FStop != nil {
				t.Error("untagged image should have nil optional fields")
			}
		})
	}
}

func TestExtract_MalformedTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.jpg")
	writeExifJPEG(t, path, 16, 12,
		[]ifdEntry{asciiEntry(tagMake, "Canon")}, // no model
		[]ifdEntry{
			asciiEntry(tagDateTimeOriginal, "0000:00:00 00:00:00"),
			rationalEntry(tagFNumber, 28, 0),
			rationalEntry(tagExposureTime, 2, 1),
		})

	got, err := Extract(path)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got.Created != nil {
		t.Errorf("Created = %q, want nil for malformed date", *got.Created)
	}
	if got.Camera != nil {
		t.Errorf("Camera = %q, want nil without a model", *got.Camera)
	}
	if got.FStop != nil {
		t.Errorf("FStop = %q, want nil for zero denominator", *got.FStop)
	}
	if deref(got.ShutterSpeed) != "2" {
		t.Errorf("ShutterSpeed = %q, want 2", deref(got.ShutterSpeed))
	}
}

func TestExtract_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("Missing file", func(t *testing.T) {
		_, err := Extract(filepath.Join(tmpDir, "nope.jpg"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
		if errors.Is(err, ErrNoDimensions) {
			t.Error("missing file should not be reported as ErrNoDimensions")
		}
	})

	t.Run("Corrupt file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "corrupt.jpg")
		if err := os.WriteFile(path, []byte("definitely not an image"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := Extract(path)
		if !errors.Is(err, ErrNoDimensions) {
			t.Errorf("Extract(corrupt) error = %v, want ErrNoDimensions", err)
		}
	})
}

func TestParseCaptureTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2018:01:01 12:17:12", "2018-01-01 12:17:12"},
		{"1999:12:31 23:59:59", "1999-12-31 23:59:59"},
		{"2018-01-01 12:17:12", "<nil>"},
		{"", "<nil>"},
		{"    :  :     :  :  ", "<nil>"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := deref(parseCaptureTime(tt.raw)); got != tt.want {
				t.Errorf("parseCaptureTime(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAspectRatio(t *testing.T) {
	e := &Exif{Width: 4000, Height: 3000}
	if math.Abs(e.AspectRatio()-4.0/3.0) > 1e-9 {
		t.Errorf("AspectRatio() = %v, want 4/3", e.AspectRatio())
	}

	zero := &Exif{Width: 10}
	if zero.AspectRatio() != 0 {
		t.Errorf("AspectRatio() with zero height = %v, want 0", zero.AspectRatio())
	}
}
