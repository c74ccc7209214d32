package database

// Directory is one row of the dirs table.
type Directory struct {
	UserPath       string  `json:"user_path"`
	Path           string  `json:"path"`
	ParentUserPath *string `json:"parent_user_path"`
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	Thumb20URL     string  `json:"thumb_20_url"`
	Thumb100URL    string  `json:"thumb_100_url"`
	Thumb250URL    string  `json:"thumb_250_url"`
	Thumb500URL    string  `json:"thumb_500_url"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	AspectRatio    float64 `json:"aspect_ratio"`
	CreatedTime    *string `json:"created_time"`
	ModifiedTime   string  `json:"modified_time"`
	NumSubdirs     int     `json:"num_subdirs"`
	NumPhotos      int     `json:"num_photos"`
}

// Photo is one row of the photos table, keyed by (UserPath, Filename).
type Photo struct {
	UserPath         string   `json:"user_path"`
	Filename         string   `json:"filename"`
	Path             string   `json:"path"`
	URL              string   `json:"url"`
	Thumb20URL       string   `json:"thumb_20_url"`
	Thumb100URL      string   `json:"thumb_100_url"`
	Thumb250URL      string   `json:"thumb_250_url"`
	Thumb500URL      string   `json:"thumb_500_url"`
	CreatedTime      *string  `json:"created_time"`
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	AspectRatio      float64  `json:"aspect_ratio"`
	Size             int64    `json:"size"`
	ModifiedTime     string   `json:"modified_time"`
	ExifFStop        *string  `json:"exif_fstop"`
	ExifFocalLength  *string  `json:"exif_focal_length"`
	ExifISO          *string  `json:"exif_iso"`
	ExifShutterSpeed *string  `json:"exif_shutter_speed"`
	ExifCamera       *string  `json:"exif_camera"`
	ExifLens         *string  `json:"exif_lens"`
	ExifGPSLat       *float64 `json:"exif_gps_lat"`
	ExifGPSLon       *float64 `json:"exif_gps_lon"`
	ExifGPSAltFt     *float64 `json:"exif_gps_alt_ft"`
}

// ThumbURLs returns the four thumbnail URLs smallest first.
func (d *Directory) ThumbURLs() [4]string {
	return [4]string{d.Thumb20URL, d.Thumb100URL, d.Thumb250URL, d.Thumb500URL}
}

// SetThumbURLs assigns the four thumbnail URLs smallest first.
func (d *Directory) SetThumbURLs(urls [4]string) {
	d.Thumb20URL, d.Thumb100URL, d.Thumb250URL, d.Thumb500URL = urls[0], urls[1], urls[2], urls[3]
}

// ThumbURLs returns the four thumbnail URLs smallest first.
func (p *Photo) ThumbURLs() [4]string {
	return [4]string{p.Thumb20URL, p.Thumb100URL, p.Thumb250URL, p.Thumb500URL}
}

// SetThumbURLs assigns the four thumbnail URLs smallest first.
func (p *Photo) SetThumbURLs(urls [4]string) {
	p.Thumb20URL, p.Thumb100URL, p.Thumb250URL, p.Thumb500URL = urls[0], urls[1], urls[2], urls[3]
}

// Item types in a grid listing.
const (
	GridTypeDir   = "dir"
	GridTypeImage = "image"
)

// PathContents is everything the gallery needs to render one directory.
type PathContents struct {
	UserPath string         `json:"user_path"`
	Lightbox []LightboxItem `json:"lightbox"`
	Grid     []GridItem     `json:"grid"`
}

// LightboxItem describes a photo for a photoswipe-style viewer.
type LightboxItem struct {
	Src              string   `json:"src"`
	W                int      `json:"w"`
	H                int      `json:"h"`
	PID              string   `json:"pid"`
	Title            string   `json:"title"`
	CreatedTime      string   `json:"created_time"`
	Size             int64    `json:"size"`
	Filename         string   `json:"filename"`
	ExifFStop        *string  `json:"exif_fstop"`
	ExifFocalLength  *string  `json:"exif_focal_length"`
	ExifISO          *string  `json:"exif_iso"`
	ExifShutterSpeed *string  `json:"exif_shutter_speed"`
	ExifCamera       *string  `json:"exif_camera"`
	ExifLens         *string  `json:"exif_lens"`
	ExifGPSLat       *float64 `json:"exif_gps_lat"`
	ExifGPSLon       *float64 `json:"exif_gps_lon"`
	ExifGPSAltFt     *float64 `json:"exif_gps_alt_ft"`
}

// GridItem is one tile of the thumbnail grid.
type GridItem struct {
	ImageSizes  map[string]string `json:"imageSizes"`
	AspectRatio float64           `json:"aspectRatio"`
	Metadata    GridMetadata      `json:"metadata"`
}

// GridMetadata carries the per-tile details. Directory tiles fill URL and the
// counts; photo tiles fill LightboxIndex.
type GridMetadata struct {
	Name          string `json:"name"`
	URL           string `json:"url,omitempty"`
	Type          string `json:"type"`
	NumPhotos     *int   `json:"num_photos,omitempty"`
	NumSubdirs    *int   `json:"num_subdirs,omitempty"`
	LightboxIndex *int   `json:"lightboxIndex,omitempty"`
}
