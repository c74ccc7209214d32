package indexer

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"photo-index/internal/database"
	"photo-index/internal/filesystem"
	"photo-index/internal/media"
	"photo-index/internal/mediatypes"
	"photo-index/internal/resolver"
)

// ErrNotIndexable is returned by Builder.Photo for the directory icon and for
// files without a supported image extension.
var ErrNotIndexable = errors.New("not an indexable photo")

// DirectoryInput is everything needed to assemble a Directory record.
type DirectoryInput struct {
	UserPath  string
	DiskPath  string
	URL       string
	ThumbURLs [mediatypes.NumThumbSizes]string
	Icon      resolver.IconDimensions
	Created   time.Time
	Modified  time.Time
	Subdirs   []string
	Files     []string
}

// PhotoInput is everything needed to assemble a Photo record.
type PhotoInput struct {
	UserPath  string
	Filename  string
	DiskPath  string
	URL       string
	ThumbURLs [mediatypes.NumThumbSizes]string
	Size      int64
	Modified  time.Time
	Exif      *media.Exif
}

// NewDirectoryRecord assembles a Directory. The icon file does not count
// towards NumPhotos; every other immediate file does.
func NewDirectoryRecord(in DirectoryInput) *database.Directory {
	numPhotos := 0
	for _, name := range in.Files {
		if name != mediatypes.IconFile {
			numPhotos++
		}
	}

	created := mediatypes.FormatTimestamp(in.Created)
	dir := &database.Directory{
		UserPath:       in.UserPath,
		Path:           in.DiskPath,
		ParentUserPath: resolver.ParentUserPath(in.UserPath),
		Name:           resolver.DisplayName(in.DiskPath),
		URL:            in.URL,
		Width:          in.Icon.Width,
		Height:         in.Icon.Height,
		AspectRatio:    in.Icon.AspectRatio(),
		CreatedTime:    &created,
		ModifiedTime:   mediatypes.FormatTimestamp(in.Modified),
		NumSubdirs:     len(in.Subdirs),
		NumPhotos:      numPhotos,
	}
	dir.SetThumbURLs(in.ThumbURLs)
	return dir
}

// NewPhotoRecord assembles a Photo. It returns false when the file must not
// be indexed.
func NewPhotoRecord(in PhotoInput) (*database.Photo, bool) {
	if !mediatypes.IsIndexable(in.Filename) || in.Exif == nil || in.Exif.Height <= 0 {
		return nil, false
	}

	photo := &database.Photo{
		UserPath:         in.UserPath,
		Filename:         in.Filename,
		Path:             in.DiskPath,
		URL:              in.URL,
		CreatedTime:      in.Exif.Created,
		Width:            in.Exif.Width,
		Height:           in.Exif.Height,
		AspectRatio:      in.Exif.AspectRatio(),
		Size:             in.Size,
		ModifiedTime:     mediatypes.FormatTimestamp(in.Modified),
		ExifFStop:        in.Exif.FStop,
		ExifFocalLength:  in.Exif.FocalLength,
		ExifISO:          in.Exif.ISO,
		ExifShutterSpeed: in.Exif.ShutterSpeed,
		ExifCamera:       in.Exif.Camera,
		ExifLens:         in.Exif.Lens,
		ExifGPSLat:       in.Exif.GPSLat,
		ExifGPSLon:       in.Exif.GPSLon,
		ExifGPSAltFt:     in.Exif.GPSAltFt,
	}
	photo.SetThumbURLs(in.ThumbURLs)
	return photo, true
}

// Builder gathers the filesystem facts for records and hands them to the
// assembly functions above.
type Builder struct {
	resolver *resolver.Resolver
	extract  func(path string) (*media.Exif, error)
	retry    filesystem.RetryConfig
}

// NewBuilder creates a Builder that reads metadata with media.Extract.
func NewBuilder(res *resolver.Resolver) *Builder {
	return &Builder{
		resolver: res,
		extract:  media.Extract,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// Directory builds the record for a walked directory.
func (b *Builder) Directory(dir *LocalDir) *database.Directory {
	return NewDirectoryRecord(DirectoryInput{
		UserPath:  dir.UserPath,
		DiskPath:  dir.DiskPath,
		URL:       b.resolver.DirURL(dir.UserPath),
		ThumbURLs: b.resolver.DirThumbURLs(dir.DiskPath, dir.UserPath),
		Icon:      b.resolver.DirIconDimensions(dir.DiskPath),
		Created:   changeTime(dir.Info),
		Modified:  dir.Info.ModTime(),
		Subdirs:   dir.Subdirs,
		Files:     dir.Files,
	})
}

// Photo builds the record for one file of dir. Files that are not photos
// return ErrNotIndexable; read and decode failures are returned wrapped.
func (b *Builder) Photo(dir *LocalDir, filename string) (*database.Photo, error) {
	if !mediatypes.IsIndexable(filename) {
		return nil, ErrNotIndexable
	}

	diskPath := filepath.Join(dir.DiskPath, filename)
	info, err := filesystem.StatWithRetry(diskPath, b.retry)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", diskPath, err)
	}

	exif, err := b.extract(diskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	photo, ok := NewPhotoRecord(PhotoInput{
		UserPath:  dir.UserPath,
		Filename:  filename,
		DiskPath:  diskPath,
		URL:       b.resolver.PhotoURL(dir.UserPath, filename),
		ThumbURLs: b.resolver.PhotoThumbURLs(dir.DiskPath, dir.UserPath, filename),
		Size:      info.Size(),
		Modified:  info.ModTime(),
		Exif:      exif,
	})
	if !ok {
		return nil, fmt.Errorf("%w: %s", media.ErrNoDimensions, diskPath)
	}
	return photo, nil
}

// modifiedTime is the value a photo's ModifiedTime would get if it were
// rebuilt now.
func (b *Builder) modifiedTime(dir *LocalDir, filename string) (string, error) {
	info, err := filesystem.StatWithRetry(filepath.Join(dir.DiskPath, filename), b.retry)
	if err != nil {
		return "", err
	}
	return mediatypes.FormatTimestamp(info.ModTime()), nil
}
