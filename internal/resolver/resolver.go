package resolver

import (
	"math"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"photo-index/internal/filesystem"
	"photo-index/internal/logging"
	"photo-index/internal/media"
	"photo-index/internal/mediatypes"
	"photo-index/internal/metrics"
)

// RootUserPath is the canonical path of the index root itself.
const RootUserPath = "/"

// Default URL prefixes, matching the gallery front end.
const (
	DefaultPhotoURLRoot    = "/photo"
	DefaultDirURLRoot      = "/photos"
	DefaultDefaultThumbURL = "/static/default_thumbnails"
)

// Config holds the URL prefixes records are built with.
type Config struct {
	PhotoURLRoot    string
	DirURLRoot      string
	DefaultThumbURL string
}

// Resolver maps on-disk locations to canonical paths and URLs.
type Resolver struct {
	indexRoot string
	config    Config
	retry     filesystem.RetryConfig
}

// IconDimensions describes a directory's representative image.
type IconDimensions struct {
	Width  int
	Height int
	// Default is set when no icon thumbnail could be measured.
	Default bool
}

// AspectRatio returns Width/Height.
func (d IconDimensions) AspectRatio() float64 {
	return float64(d.Width) / float64(d.Height)
}

// New creates a Resolver for the tree rooted at indexRoot. Empty Config
// fields take the package defaults.
func New(indexRoot string, config Config) *Resolver {
	if config.PhotoURLRoot == "" {
		config.PhotoURLRoot = DefaultPhotoURLRoot
	}
	if config.DirURLRoot == "" {
		config.DirURLRoot = DefaultDirURLRoot
	}
	if config.DefaultThumbURL == "" {
		config.DefaultThumbURL = DefaultDefaultThumbURL
	}

	return &Resolver{
		indexRoot: filepath.Clean(indexRoot),
		config:    config,
		retry:     filesystem.DefaultRetryConfig(),
	}
}

// IndexRoot returns the cleaned on-disk root.
func (r *Resolver) IndexRoot() string {
	return r.indexRoot
}

// Within reports whether diskPath is the index root or lies beneath it.
func (r *Resolver) Within(diskPath string) bool {
	p := filepath.Clean(diskPath)
	if p == r.indexRoot || r.indexRoot == string(filepath.Separator) {
		return true
	}
	return strings.HasPrefix(p, r.indexRoot+string(filepath.Separator))
}

// UserPath returns the canonical user path of a directory on disk.
func (r *Resolver) UserPath(diskPath string) string {
	return UserPath(diskPath, r.indexRoot)
}

// UserPath strips indexRoot from diskPath and guarantees a leading separator.
// The root itself canonicalizes to "/". Only whole path components are
// stripped, so "/albums2" is not treated as being under "/albums".
func UserPath(diskPath, indexRoot string) string {
	p := filepath.ToSlash(filepath.Clean(diskPath))
	root := filepath.ToSlash(filepath.Clean(indexRoot))

	switch {
	case p == root:
		return RootUserPath
	case root == "/":
		// nothing to strip
	case strings.HasPrefix(p, root+"/"):
		p = p[len(root):]
	}

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// ParentUserPath returns the parent of a canonical path, or nil at the root.
func ParentUserPath(userPath string) *string {
	if userPath == RootUserPath {
		return nil
	}
	parent := path.Dir(userPath)
	return &parent
}

// DisplayName returns the last component of a directory's disk path.
func DisplayName(diskPath string) string {
	return filepath.Base(filepath.Clean(diskPath))
}

// DirURL returns the gallery URL for a directory.
func (r *Resolver) DirURL(userPath string) string {
	return joinURL(r.config.DirURLRoot, userPath)
}

// PhotoURL returns the URL of the full-size image.
func (r *Resolver) PhotoURL(userPath, filename string) string {
	return joinURL(r.config.PhotoURLRoot, userPath, filename)
}

// ThumbURL resolves one thumbnail. If <diskDir>/_thumbnail/<size>/<filename>
// exists the URL points at it; otherwise it is the default asset for size,
// which is the same for every photo.
func (r *Resolver) ThumbURL(diskDir, userPath, filename, size string) string {
	onDisk := filepath.Join(diskDir, mediatypes.ThumbsDir, size, filename)
	if filesystem.Exists(onDisk, r.retry) {
		metrics.ThumbnailLookups.WithLabelValues("found").Inc()
		return joinURL(r.config.PhotoURLRoot, userPath, mediatypes.ThumbsDir, size, filename)
	}

	metrics.ThumbnailLookups.WithLabelValues("default").Inc()
	return r.DefaultThumbURL(size)
}

// DefaultThumbURL is the fallback thumbnail for size.
func (r *Resolver) DefaultThumbURL(size string) string {
	return joinURL(r.config.DefaultThumbURL, size, mediatypes.IconFile)
}

// PhotoThumbURLs resolves every thumbnail size for a photo.
func (r *Resolver) PhotoThumbURLs(diskDir, userPath, filename string) [mediatypes.NumThumbSizes]string {
	var urls [mediatypes.NumThumbSizes]string
	for i, size := range mediatypes.ThumbSizes {
		urls[i] = r.ThumbURL(diskDir, userPath, filename, size)
	}
	return urls
}

// DirThumbURLs resolves every thumbnail size for a directory icon.
func (r *Resolver) DirThumbURLs(diskDir, userPath string) [mediatypes.NumThumbSizes]string {
	return r.PhotoThumbURLs(diskDir, userPath, mediatypes.IconFile)
}

// DirIconDimensions measures the largest generated icon thumbnail. When it has
// not been generated (or cannot be read) the directory gets a 4:3 box whose
// height is the thumbnail size, so indexing never fails on a missing icon.
func (r *Resolver) DirIconDimensions(diskDir string) IconDimensions {
	size := mediatypes.LargestThumbSize()
	icon := filepath.Join(diskDir, mediatypes.ThumbsDir, size, mediatypes.IconFile)

	if filesystem.Exists(icon, r.retry) {
		exif, err := media.Extract(icon)
		if err == nil {
			return IconDimensions{Width: exif.Width, Height: exif.Height}
		}
		logging.Warn("Could not read directory icon %s, using default dimensions: %v", icon, err)
	}

	return DefaultIconDimensions()
}

// DefaultIconDimensions is the box used for directories without an icon.
func DefaultIconDimensions() IconDimensions {
	height := thumbHeight(mediatypes.LargestThumbSize())
	return IconDimensions{
		Width:   int(math.Round(float64(height) * mediatypes.DefaultAspectRatio)),
		Height:  height,
		Default: true,
	}
}

func thumbHeight(size string) int {
	n, err := strconv.Atoi(size)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// joinURL joins URL segments with "/", dropping empty parts and doubled slashes.
func joinURL(root string, parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, root)
	for _, p := range parts {
		elems = append(elems, strings.TrimPrefix(p, "/"))
	}
	return path.Join(elems...)
}
