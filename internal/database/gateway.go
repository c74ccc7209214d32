package database

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

const dirColumns = `user_path, path, parent_user_path, name, url,
	thumb_20_url, thumb_100_url, thumb_250_url, thumb_500_url,
	width, height, aspect_ratio, created_time, modified_time,
	num_subdirs, num_photos`

const photoColumns = `user_path, filename, path, url,
	thumb_20_url, thumb_100_url, thumb_250_url, thumb_500_url,
	created_time, width, height, aspect_ratio, size, modified_time,
	exif_fstop, exif_focal_length, exif_iso, exif_shutter_speed,
	exif_camera, exif_lens, exif_gps_lat, exif_gps_lon, exif_gps_alt_ft`

// likeEscape is the ESCAPE character for LIKE patterns. A backslash would
// need different quoting in SQLite and MySQL.
const likeEscape = "!"

// ReplaceDirectory inserts dir, overwriting any row with the same user path.
// Must be called within a transaction.
func (d *Database) ReplaceDirectory(tx *sql.Tx, dir *Directory) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("replace_directory", start, err) }()

	// Use background context since we're within a transaction.
	// The transaction itself controls the operation's lifecycle.
	var result sql.Result
	result, err = tx.ExecContext(context.Background(),
		`REPLACE INTO dirs (`+dirColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		dir.UserPath, dir.Path, dir.ParentUserPath, dir.Name, dir.URL,
		dir.Thumb20URL, dir.Thumb100URL, dir.Thumb250URL, dir.Thumb500URL,
		dir.Width, dir.Height, dir.AspectRatio, dir.CreatedTime, dir.ModifiedTime,
		dir.NumSubdirs, dir.NumPhotos,
	)
	if err == nil {
		recordRows("replace_directory", result)
	}
	return err
}

// ReplacePhoto inserts photo, overwriting any row with the same
// (user path, filename). Must be called within a transaction.
func (d *Database) ReplacePhoto(tx *sql.Tx, photo *Photo) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("replace_photo", start, err) }()

	var result sql.Result
	result, err = tx.ExecContext(context.Background(),
		`REPLACE INTO photos (`+photoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		photo.UserPath, photo.Filename, photo.Path, photo.URL,
		photo.Thumb20URL, photo.Thumb100URL, photo.Thumb250URL, photo.Thumb500URL,
		photo.CreatedTime, photo.Width, photo.Height, photo.AspectRatio, photo.Size, photo.ModifiedTime,
		photo.ExifFStop, photo.ExifFocalLength, photo.ExifISO, photo.ExifShutterSpeed,
		photo.ExifCamera, photo.ExifLens, photo.ExifGPSLat, photo.ExifGPSLon, photo.ExifGPSAltFt,
	)
	if err == nil {
		recordRows("replace_photo", result)
	}
	return err
}

// DeleteDirectory removes the row for userPath. Photos are left alone; use
// DeletePhotosIn to purge them.
func (d *Database) DeleteDirectory(tx *sql.Tx, userPath string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_directory", start, err) }()

	var result sql.Result
	result, err = tx.ExecContext(context.Background(), "DELETE FROM dirs WHERE user_path = ?", userPath)
	if err == nil {
		recordRows("delete_directory", result)
	}
	return err
}

// DeletePhoto removes one photo row.
func (d *Database) DeletePhoto(tx *sql.Tx, userPath, filename string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_photo", start, err) }()

	var result sql.Result
	result, err = tx.ExecContext(context.Background(),
		"DELETE FROM photos WHERE user_path = ? AND filename = ?", userPath, filename)
	if err == nil {
		recordRows("delete_photo", result)
	}
	return err
}

// DeletePhotosIn removes every photo directly in userPath. Subdirectories are
// separate directory records and are purged on their own.
func (d *Database) DeletePhotosIn(tx *sql.Tx, userPath string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_photos_in", start, err) }()

	var result sql.Result
	result, err = tx.ExecContext(context.Background(), "DELETE FROM photos WHERE user_path = ?", userPath)
	if err != nil {
		return 0, err
	}

	recordRows("delete_photos_in", result)
	return result.RowsAffected()
}

// ListDirectoryPathsUnder returns the user paths of prefix and every directory
// beneath it. The root prefix "/" matches everything.
func (d *Database) ListDirectoryPathsUnder(ctx context.Context, prefix string) (map[string]struct{}, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_directory_paths", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	if prefix == "/" {
		rows, err = d.db.QueryContext(ctx, "SELECT user_path FROM dirs")
	} else {
		prefix = strings.TrimSuffix(prefix, "/")
		rows, err = d.db.QueryContext(ctx,
			`SELECT user_path FROM dirs WHERE user_path = ? OR user_path LIKE ? ESCAPE '`+likeEscape+`'`,
			prefix, escapeLike(prefix)+"/%")
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	paths := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err = rows.Scan(&p); err != nil {
			return nil, err
		}
		paths[p] = struct{}{}
	}
	err = rows.Err()
	return paths, err
}

// ListPhotoModTimes maps each filename stored for userPath to its stored
// modification time string.
func (d *Database) ListPhotoModTimes(ctx context.Context, userPath string) (map[string]string, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_photo_mod_times", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, "SELECT filename, modified_time FROM photos WHERE user_path = ?", userPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	modTimes := make(map[string]string)
	for rows.Next() {
		var filename, modTime string
		if err = rows.Scan(&filename, &modTime); err != nil {
			return nil, err
		}
		modTimes[filename] = modTime
	}
	err = rows.Err()
	return modTimes, err
}

// GetDirectory loads one directory row. Returns sql.ErrNoRows if absent.
func (d *Database) GetDirectory(ctx context.Context, userPath string) (*Directory, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, "SELECT "+dirColumns+" FROM dirs WHERE user_path = ?", userPath)
	return scanDirectory(row)
}

// GetPhoto loads one photo row. Returns sql.ErrNoRows if absent.
func (d *Database) GetPhoto(ctx context.Context, userPath, filename string) (*Photo, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT "+photoColumns+" FROM photos WHERE user_path = ? AND filename = ?", userPath, filename)
	return scanPhoto(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDirectory(row rowScanner) (*Directory, error) {
	var dir Directory
	err := row.Scan(
		&dir.UserPath, &dir.Path, &dir.ParentUserPath, &dir.Name, &dir.URL,
		&dir.Thumb20URL, &dir.Thumb100URL, &dir.Thumb250URL, &dir.Thumb500URL,
		&dir.Width, &dir.Height, &dir.AspectRatio, &dir.CreatedTime, &dir.ModifiedTime,
		&dir.NumSubdirs, &dir.NumPhotos,
	)
	if err != nil {
		return nil, err
	}
	return &dir, nil
}

func scanPhoto(row rowScanner) (*Photo, error) {
	var p Photo
	err := row.Scan(
		&p.UserPath, &p.Filename, &p.Path, &p.URL,
		&p.Thumb20URL, &p.Thumb100URL, &p.Thumb250URL, &p.Thumb500URL,
		&p.CreatedTime, &p.Width, &p.Height, &p.AspectRatio, &p.Size, &p.ModifiedTime,
		&p.ExifFStop, &p.ExifFocalLength, &p.ExifISO, &p.ExifShutterSpeed,
		&p.ExifCamera, &p.ExifLens, &p.ExifGPSLat, &p.ExifGPSLon, &p.ExifGPSAltFt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
