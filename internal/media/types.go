package media

// Dimension sources reported on Exif.DimensionSource and as metric labels.
const (
	SourceExif   = "exif"
	SourceDecode = "decode"
)

// Exif is the metadata extracted from one image file. Optional fields are nil
// when the tag was absent or could not be parsed.
type Exif struct {
	Width  int
	Height int

	// DimensionSource says whether Width/Height came from tags or pixel decoding.
	DimensionSource string

	// Created is the capture time in mediatypes.TimestampLayout form.
	Created *string

	FStop        *string
	FocalLength  *string
	ISO          *string
	ShutterSpeed *string
	Camera       *string
	Lens         *string

	// GPS is not extracted yet; these are always nil.
	GPSLat   *float64
	GPSLon   *float64
	GPSAltFt *float64
}

// AspectRatio returns Width/Height, or 0 if Height is not positive.
func (e *Exif) AspectRatio() float64 {
	if e.Height <= 0 {
		return 0
	}
	return float64(e.Width) / float64(e.Height)
}

func stringPtr(s string) *string {
	return &s
}
