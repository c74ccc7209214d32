// Package mediatypes holds the constants shared by the walker, the path
// resolver and the record builder: the supported extension whitelist, the
// directory icon filename and the thumbnail-cache layout.
//
// The on-disk layout for a photo directory looks like:
//
//	2017/Yosemite/
//	    _icon.jpg
//	    IMG_0001.jpg
//	    _thumbnail/
//	        20/IMG_0001.jpg
//	        100/IMG_0001.jpg
//	        250/IMG_0001.jpg
//	        500/_icon.jpg
//
// This package has no dependencies beyond the standard library so it can be
// imported anywhere without creating import cycles.
package mediatypes
