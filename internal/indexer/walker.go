package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"photo-index/internal/filesystem"
	"photo-index/internal/logging"
	"photo-index/internal/mediatypes"
	"photo-index/internal/resolver"
)

// LocalDir is one directory as found on disk during a walk.
type LocalDir struct {
	UserPath string
	DiskPath string
	Info     os.FileInfo // stat of DiskPath, symlinks resolved

	// Immediate children, sorted by name. Subdirs never contains an
	// excluded directory.
	Subdirs []string
	Files   []string
}

// Walker lists a subtree of the index root.
type Walker struct {
	resolver *resolver.Resolver
	exclude  func(name string) bool
	retry    filesystem.RetryConfig
}

// NewWalker returns a walker that skips thumbnail-cache directories.
func NewWalker(res *resolver.Resolver) *Walker {
	return &Walker{
		resolver: res,
		exclude:  mediatypes.IsThumbsDir,
		retry:    filesystem.DefaultRetryConfig(),
	}
}

// setExclude replaces the directory exclusion predicate.
func (w *Walker) setExclude(exclude func(name string) bool) {
	if exclude == nil {
		exclude = func(string) bool { return false }
	}
	w.exclude = exclude
}

// Walk returns every directory under target (target included) keyed by
// canonical user path. Symbolic links are followed; a link that points back
// at one of its own ancestors is listed as a subdirectory but not descended
// into. Any directory that cannot be read fails the walk, so a transient
// error never makes a subtree look deleted.
func (w *Walker) Walk(ctx context.Context, target string) (map[string]*LocalDir, error) {
	info, err := filesystem.StatWithRetry(target, w.retry)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", target, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrTargetNotFound, target)
	}

	dirs := make(map[string]*LocalDir)
	if err := w.walkDir(ctx, filepath.Clean(target), info, map[string]bool{}, dirs); err != nil {
		return nil, err
	}
	return dirs, nil
}

func (w *Walker) walkDir(ctx context.Context, diskPath string, info os.FileInfo, ancestors map[string]bool, out map[string]*LocalDir) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(diskPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", diskPath, err)
	}

	entries, err := filesystem.ReadDirWithRetry(diskPath, w.retry)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", diskPath, err)
	}

	dir := &LocalDir{
		UserPath: w.resolver.UserPath(diskPath),
		DiskPath: diskPath,
		Info:     info,
	}

	type child struct {
		path string
		info os.FileInfo
	}
	var children []child

	for _, entry := range entries {
		name := entry.Name()
		entryPath := filepath.Join(diskPath, name)

		isDir := entry.IsDir()
		var entryInfo os.FileInfo
		if entry.Type()&os.ModeSymlink != 0 || isDir {
			entryInfo, err = filesystem.StatWithRetry(entryPath, w.retry)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					logging.Warn("Skipping broken symlink %s", entryPath)
					continue
				}
				return fmt.Errorf("failed to stat %s: %w", entryPath, err)
			}
			isDir = entryInfo.IsDir()
		}

		if !isDir {
			dir.Files = append(dir.Files, name)
			continue
		}
		if w.exclude(name) {
			continue
		}

		dir.Subdirs = append(dir.Subdirs, name)
		children = append(children, child{path: entryPath, info: entryInfo})
	}

	sort.Strings(dir.Subdirs)
	sort.Strings(dir.Files)
	out[dir.UserPath] = dir

	ancestors[resolved] = true
	defer delete(ancestors, resolved)

	for _, c := range children {
		target, err := filepath.EvalSymlinks(c.path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", c.path, err)
		}
		if ancestors[target] {
			logging.Warn("Not descending into %s: symlink loop back to %s", c.path, target)
			continue
		}
		if err := w.walkDir(ctx, c.path, c.info, ancestors, out); err != nil {
			return err
		}
	}

	return nil
}
