// Package resolver turns on-disk locations into the canonical user paths and
// URLs stored in the index.
//
// A directory's user path is its disk path with the index root removed, for
// example "/srv/albums/2020/trip" under root "/srv/albums" becomes
// "/2020/trip". Thumbnail URLs depend on whether the thumbnail generator has
// already written <dir>/_thumbnail/<size>/<name>; missing thumbnails resolve
// to a per-size default asset.
package resolver
