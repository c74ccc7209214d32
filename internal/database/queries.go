package database

import (
	"context"
	"time"

	"photo-index/internal/logging"
	"photo-index/internal/mediatypes"
)

// lightboxDateLayout renders capture times for captions.
const lightboxDateLayout = "Jan 01 2006 15:04:05"

const noDateAvailable = "No date available"

// GetPathContents returns the photos and subdirectories of userPath shaped
// for the gallery. Photos are ordered by filename. Subdirectories are ordered
// by name, ascending at the root and descending elsewhere so that year
// folders list newest first.
func (d *Database) GetPathContents(ctx context.Context, userPath string) (*PathContents, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_path_contents", start, err) }()

	logging.Debug("GetPathContents called: path=%q", userPath)

	var photos []*Photo
	photos, err = d.listPhotos(ctx, userPath)
	if err != nil {
		return nil, err
	}

	var dirs []*Directory
	dirs, err = d.listSubdirectories(ctx, userPath)
	if err != nil {
		return nil, err
	}

	return &PathContents{
		UserPath: userPath,
		Lightbox: lightboxInfo(photos),
		Grid:     gridInfo(photos, dirs),
	}, nil
}

func (d *Database) listPhotos(ctx context.Context, userPath string) ([]*Photo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE user_path = ? ORDER BY filename ASC", userPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var photos []*Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func (d *Database) listSubdirectories(ctx context.Context, userPath string) ([]*Directory, error) {
	order := "DESC"
	if userPath == "/" {
		order = "ASC"
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		"SELECT "+dirColumns+" FROM dirs WHERE parent_user_path = ? ORDER BY name "+order, userPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dirs []*Directory
	for rows.Next() {
		dir, err := scanDirectory(rows)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, rows.Err()
}

func lightboxInfo(photos []*Photo) []LightboxItem {
	items := make([]LightboxItem, 0, len(photos))
	for _, p := range photos {
		items = append(items, LightboxItem{
			Src:              p.URL,
			W:                p.Width,
			H:                p.Height,
			PID:              p.Filename,
			Title:            p.Filename,
			CreatedTime:      captionDate(p.CreatedTime),
			Size:             p.Size,
			Filename:         p.Filename,
			ExifFStop:        p.ExifFStop,
			ExifFocalLength:  p.ExifFocalLength,
			ExifISO:          p.ExifISO,
			ExifShutterSpeed: p.ExifShutterSpeed,
			ExifCamera:       p.ExifCamera,
			ExifLens:         p.ExifLens,
			ExifGPSLat:       p.ExifGPSLat,
			ExifGPSLon:       p.ExifGPSLon,
			ExifGPSAltFt:     p.ExifGPSAltFt,
		})
	}
	return items
}

// gridInfo lists directories first, then photos in lightbox order.
func gridInfo(photos []*Photo, dirs []*Directory) []GridItem {
	items := make([]GridItem, 0, len(photos)+len(dirs))

	for _, dir := range dirs {
		numPhotos, numSubdirs := dir.NumPhotos, dir.NumSubdirs
		items = append(items, GridItem{
			ImageSizes:  imageSizes(dir.ThumbURLs()),
			AspectRatio: dir.AspectRatio,
			Metadata: GridMetadata{
				Name:       dir.Name,
				URL:        dir.URL,
				Type:       GridTypeDir,
				NumPhotos:  &numPhotos,
				NumSubdirs: &numSubdirs,
			},
		})
	}

	for i, p := range photos {
		index := i
		items = append(items, GridItem{
			ImageSizes:  imageSizes(p.ThumbURLs()),
			AspectRatio: p.AspectRatio,
			Metadata: GridMetadata{
				Name:          p.Filename,
				Type:          GridTypeImage,
				LightboxIndex: &index,
			},
		})
	}

	return items
}

func imageSizes(urls [4]string) map[string]string {
	sizes := make(map[string]string, mediatypes.NumThumbSizes)
	for i, size := range mediatypes.ThumbSizes {
		sizes[size] = urls[i]
	}
	return sizes
}

func captionDate(created *string) string {
	if created == nil {
		return noDateAvailable
	}
	t, err := time.Parse(mediatypes.TimestampLayout, *created)
	if err != nil {
		return noDateAvailable
	}
	return t.Format(lightboxDateLayout)
}
