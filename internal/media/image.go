package media

import (
	"errors"
	"fmt"
	"image"

	// Decoders for the supported photo types
	_ "image/jpeg"
	_ "image/png"

	"photo-index/internal/filesystem"
	"photo-index/internal/logging"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// ErrNoDimensions is returned when neither tags nor decoding yield a size.
var ErrNoDimensions = errors.New("image dimensions unavailable")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image.
// If the header cannot be read it falls back to a full decode, which copes
// with some files whose headers confuse DecodeConfig.
func GetImageDimensions(path string) (*ImageDimensions, error) {
	dims, err := decodeConfigDimensions(path)
	if err == nil {
		return dims, nil
	}
	logging.Debug("DecodeConfig failed for %s: %v, trying full decode", path, err)

	img, openErr := imaging.Open(path)
	if openErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoDimensions, path, errors.Join(err, openErr))
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrNoDimensions, path)
	}
	return &ImageDimensions{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func decodeConfigDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", config.Width, config.Height)
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}
