package mediatypes

import (
	"path/filepath"
	"strings"
	"time"
)

const (
	// IconFile is the per-directory representative image. It is never indexed as a photo.
	IconFile = "_icon.jpg"

	// ThumbsDir is the thumbnail-cache directory created beneath each photo directory.
	ThumbsDir = "_thumbnail"

	// NumThumbSizes is the number of generated thumbnail sizes.
	NumThumbSizes = 4

	// DefaultAspectRatio is used for directories whose icon has not been generated yet.
	DefaultAspectRatio = 4.0 / 3.0

	// TimestampLayout is the SQL datetime form every stored timestamp uses.
	TimestampLayout = "2006-01-02 15:04:05"
)

// FormatTimestamp renders t in UTC at second precision. Modification times are
// compared as these strings, so sub-second noise never forces a reindex.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// ThumbSizes lists the generated thumbnail heights in pixels, smallest first.
// Each size is a subdirectory of ThumbsDir.
var ThumbSizes = [NumThumbSizes]string{"20", "100", "250", "500"}

// LargestThumbSize returns the biggest entry of ThumbSizes.
func LargestThumbSize() string {
	return ThumbSizes[NumThumbSizes-1]
}

// ImageExtensions maps file extensions to whether they are indexed as photos.
var ImageExtensions = map[string]bool{
	".jpg": true,
	".png": true,
	".tif": true,
}

// IsSupportedImage reports whether filename has a whitelisted extension.
// Matching is case-insensitive.
func IsSupportedImage(filename string) bool {
	return ImageExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsIndexable reports whether filename should become a photo record.
func IsIndexable(filename string) bool {
	return filename != IconFile && IsSupportedImage(filename)
}

// IsThumbsDir is the walk exclusion predicate for thumbnail caches.
func IsThumbsDir(name string) bool {
	return name == ThumbsDir
}
