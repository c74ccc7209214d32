// Package media extracts photo metadata.
//
// Extract parses the EXIF block of a JPEG or TIFF and normalizes the fields
// the index stores: pixel dimensions, capture time, f-stop, focal length,
// ISO, shutter speed, camera and lens. When the dimension tags are missing
// (PNGs, edited files) the image header or pixels are decoded instead.
package media
