package indexer

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"photo-index/internal/database"
	"photo-index/internal/lock"
	"photo-index/internal/resolver"
)

// testEnv is a photo tree plus an empty index for it.
type testEnv struct {
	root     string
	db       *database.Database
	resolver *resolver.Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	root := filepath.Join(t.TempDir(), "albums")
	require.NoError(t, os.MkdirAll(root, 0o755))

	db, err := database.New(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "photos.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &testEnv{root: root, db: db, resolver: resolver.New(root, resolver.Config{})}
}

func (e *testEnv) reconciler(opts Options) *Reconciler {
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	return New(e.db, e.resolver, lock.Noop{}, opts)
}

// commit runs a committed pass over target (relative to the root).
func (e *testEnv) commit(t *testing.T, target string, opts Options) *Result {
	t.Helper()
	res, err := e.reconciler(opts).Run(context.Background(), filepath.Join(e.root, target), NewApplySink(e.db))
	require.NoError(t, err)
	return res
}

// path joins parts onto the root.
func (e *testEnv) path(parts ...string) string {
	return filepath.Join(append([]string{e.root}, parts...)...)
}

func (e *testEnv) mkdir(t *testing.T, parts ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.path(parts...), 0o755))
}

// photo writes a small real image. The format follows the extension.
func (e *testEnv) photo(t *testing.T, width, height int, parts ...string) string {
	t.Helper()
	p := e.path(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	img := imaging.New(width, height, color.NRGBA{R: 90, G: 140, B: 200, A: 255})
	require.NoError(t, imaging.Save(img, p))
	return p
}

func (e *testEnv) file(t *testing.T, content string, parts ...string) string {
	t.Helper()
	p := e.path(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// touch moves a file's modification time by d.
func touch(t *testing.T, p string, d time.Duration) {
	t.Helper()
	info, err := os.Stat(p)
	require.NoError(t, err)
	mt := info.ModTime().Add(d)
	require.NoError(t, os.Chtimes(p, mt, mt))
}

// indexedPhotos returns the filenames indexed for userPath.
func (e *testEnv) indexedPhotos(t *testing.T, userPath string) map[string]string {
	t.Helper()
	photos, err := e.db.ListPhotoModTimes(context.Background(), userPath)
	require.NoError(t, err)
	return photos
}

func (e *testEnv) indexedDirs(t *testing.T) []string {
	t.Helper()
	dirs, err := e.db.ListDirectoryPathsUnder(context.Background(), resolver.RootUserPath)
	require.NoError(t, err)
	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
