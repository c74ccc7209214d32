package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"photo-index/internal/resolver"
)

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func mustWrite(t *testing.T, path string) {
	t.Helper()
	mustMkdir(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func userPaths(dirs map[string]*LocalDir) []string {
	out := make([]string, 0, len(dirs))
	for p := range dirs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "b.jpg"))
	mustWrite(t, filepath.Join(root, "a.jpg"))
	mustWrite(t, filepath.Join(root, "2020", "trip", "1.jpg"))
	mustWrite(t, filepath.Join(root, "2020", "trip", "_thumbnail", "20", "1.jpg"))
	mustMkdir(t, filepath.Join(root, "2021"))

	w := NewWalker(resolver.New(root, resolver.Config{}))
	dirs, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/", "/2020", "/2020/trip", "/2021"}
	if got := userPaths(dirs); !reflect.DeepEqual(got, want) {
		t.Fatalf("walked %v, want %v", got, want)
	}

	top := dirs["/"]
	if !reflect.DeepEqual(top.Files, []string{"a.jpg", "b.jpg"}) {
		t.Errorf("root files = %v, want sorted [a.jpg b.jpg]", top.Files)
	}
	if !reflect.DeepEqual(top.Subdirs, []string{"2020", "2021"}) {
		t.Errorf("root subdirs = %v", top.Subdirs)
	}
	if top.Info == nil || !top.Info.IsDir() {
		t.Error("root Info should describe a directory")
	}

	trip := dirs["/2020/trip"]
	if len(trip.Subdirs) != 0 {
		t.Errorf("thumbnail cache should be excluded, got subdirs %v", trip.Subdirs)
	}
	if trip.DiskPath != filepath.Join(root, "2020", "trip") {
		t.Errorf("DiskPath = %q", trip.DiskPath)
	}
}

func TestWalk_Subtree(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "2020", "trip", "1.jpg"))
	mustWrite(t, filepath.Join(root, "2021", "x.jpg"))

	w := NewWalker(resolver.New(root, resolver.Config{}))
	dirs, err := w.Walk(context.Background(), filepath.Join(root, "2020"))
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/2020", "/2020/trip"}
	if got := userPaths(dirs); !reflect.DeepEqual(got, want) {
		t.Errorf("walked %v, want %v", got, want)
	}
}

func TestWalk_CustomExclude(t *testing.T) {
	root := t.TempDir()
	mustMkdir(t, filepath.Join(root, "keep"))
	mustMkdir(t, filepath.Join(root, ".hidden"))
	mustMkdir(t, filepath.Join(root, "_thumbnail"))

	w := NewWalker(resolver.New(root, resolver.Config{}))
	w.setExclude(func(name string) bool { return name[0] == '.' })

	dirs, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/", "/_thumbnail", "/keep"}
	if got := userPaths(dirs); !reflect.DeepEqual(got, want) {
		t.Errorf("walked %v, want %v", got, want)
	}
}

func TestWalk_MissingTarget(t *testing.T) {
	root := t.TempDir()
	w := NewWalker(resolver.New(root, resolver.Config{}))

	_, err := w.Walk(context.Background(), filepath.Join(root, "nope"))
	if !errors.Is(err, ErrTargetNotFound) {
		t.Errorf("expected ErrTargetNotFound, got %v", err)
	}
}

func TestWalk_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	mustWrite(t, filepath.Join(outside, "linked.jpg"))
	mustWrite(t, filepath.Join(root, "real", "photo.jpg"))

	if err := os.Symlink(outside, filepath.Join(root, "shared")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(root, filepath.Join(root, "real", "loop")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling.jpg")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	w := NewWalker(resolver.New(root, resolver.Config{}))
	dirs, err := w.Walk(context.Background(), root)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"/", "/real", "/shared"}
	if got := userPaths(dirs); !reflect.DeepEqual(got, want) {
		t.Errorf("walked %v, want %v", got, want)
	}
	if files := dirs["/shared"].Files; !reflect.DeepEqual(files, []string{"linked.jpg"}) {
		t.Errorf("symlinked dir files = %v", files)
	}
	if subdirs := dirs["/real"].Subdirs; !reflect.DeepEqual(subdirs, []string{"loop"}) {
		t.Errorf("loop link should still be listed, got %v", subdirs)
	}
	if len(dirs["/"].Files) != 0 {
		t.Errorf("dangling link should be skipped, got %v", dirs["/"].Files)
	}
}

func TestWalk_Cancelled(t *testing.T) {
	root := t.TempDir()
	w := NewWalker(resolver.New(root, resolver.Config{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := w.Walk(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
