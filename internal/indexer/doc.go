// Package indexer keeps the photo index in line with the photo tree on disk.
//
// A reconciliation pass walks a subtree of the index root and compares it
// with what the index holds:
//   - Directories found on disk but not in the index are added together
//     with all of their photos.
//   - Directories in the index but gone from disk are deleted and their
//     photos purged.
//   - For every other directory, photos are added when new or when their
//     modification time changed, and deleted when their file is gone.
//
// Thumbnail-cache directories (_thumbnail) are never walked and the
// directory icon (_icon.jpg) is never indexed as a photo. Only .jpg, .png
// and .tif files are indexed.
//
// Writes go to a Sink. ApplySink commits each directory's changes in one
// transaction; PlanSink prints them instead, which is how dry runs work.
// Running a pass twice over an unchanged tree writes nothing the second time.
package indexer
