package media

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"photo-index/internal/filesystem"
	"photo-index/internal/logging"
	"photo-index/internal/mediatypes"
	"photo-index/internal/metrics"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// exifTimeLayout is how cameras write DateTimeOriginal.
const exifTimeLayout = "2006:01:02 15:04:05"

// Extract reads the embedded tags of the image at path. Width and height come
// from PixelXDimension/PixelYDimension when both are present and fall back to
// decoding the image otherwise. Missing or malformed tags leave the matching
// field nil; only an unreadable file or unobtainable dimensions are errors.
func Extract(path string) (*Exif, error) {
	start := time.Now()

	result, err := readTags(path)
	if err != nil {
		metrics.ExtractTotal.WithLabelValues(SourceExif, "error").Inc()
		return nil, err
	}

	result.DimensionSource = SourceExif
	if result.Width <= 0 || result.Height <= 0 {
		result.DimensionSource = SourceDecode
		dims, err := GetImageDimensions(path)
		if err != nil {
			metrics.ExtractTotal.WithLabelValues(SourceDecode, "error").Inc()
			return nil, err
		}
		result.Width, result.Height = dims.Width, dims.Height
	}

	metrics.ExtractDuration.WithLabelValues(result.DimensionSource).Observe(time.Since(start).Seconds())
	metrics.ExtractTotal.WithLabelValues(result.DimensionSource, "success").Inc()

	return result, nil
}

func readTags(path string) (*Exif, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	result := &Exif{}

	x, err := exif.Decode(file)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		// PNGs and stripped JPEGs have no EXIF block at all
		logging.Debug("No usable EXIF in %s: %v", path, err)
		return result, nil
	}
	if err != nil {
		logging.Debug("Partial EXIF in %s: %v", path, err)
	}

	width, wOK := intTag(x, exif.PixelXDimension)
	height, hOK := intTag(x, exif.PixelYDimension)
	if wOK && hOK {
		result.Width, result.Height = width, height
	}

	if raw, ok := stringTag(x, exif.DateTimeOriginal); ok {
		result.Created = parseCaptureTime(raw)
		if result.Created == nil {
			logging.Debug("Unparsable DateTimeOriginal %q in %s", raw, path)
		}
	}

	if num, den, ok := ratTag(x, exif.FNumber); ok {
		result.FStop = stringPtr(fmt.Sprintf("%.1f", float64(num)/float64(den)))
	}
	if num, den, ok := ratTag(x, exif.FocalLength); ok {
		result.FocalLength = stringPtr(strconv.FormatInt(num/den, 10))
	}
	if iso, ok := intTag(x, exif.ISOSpeedRatings); ok {
		result.ISO = stringPtr(strconv.Itoa(iso))
	}
	if num, den, ok := ratTag(x, exif.ExposureTime); ok {
		result.ShutterSpeed = stringPtr(big.NewRat(num, den).RatString())
	}

	cameraMake, makeOK := stringTag(x, exif.Make)
	model, modelOK := stringTag(x, exif.Model)
	if makeOK && modelOK {
		result.Camera = stringPtr(cameraMake + " " + model)
	}

	if lens, ok := stringTag(x, exif.LensModel); ok {
		result.Lens = stringPtr(lens)
	}

	return result, nil
}

// parseCaptureTime converts an EXIF timestamp to the stored layout. The wall
// clock is kept as recorded; EXIF carries no zone.
func parseCaptureTime(raw string) *string {
	t, err := time.Parse(exifTimeLayout, raw)
	if err != nil {
		return nil
	}
	return stringPtr(t.Format(mediatypes.TimestampLayout))
}

func getTag(x *exif.Exif, name exif.FieldName) *tiff.Tag {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	return tag
}

func intTag(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag := getTag(x, name)
	if tag == nil || tag.Count == 0 {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func ratTag(x *exif.Exif, name exif.FieldName) (int64, int64, bool) {
	tag := getTag(x, name)
	if tag == nil || tag.Count == 0 {
		return 0, 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}

func stringTag(x *exif.Exif, name exif.FieldName) (string, bool) {
	tag := getTag(x, name)
	if tag == nil {
		return "", false
	}
	v, err := tag.StringVal()
	if err != nil {
		return "", false
	}
	v = strings.TrimSpace(strings.TrimRight(v, "\x00"))
	if v == "" {
		return "", false
	}
	return v, true
}
