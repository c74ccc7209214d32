package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGetImageDimensions(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name   string
		file   string
		width  int
		height int
	}{
		{name: "Small JPEG", file: "small.jpg", width: 100, height: 100},
		{name: "Wide JPEG", file: "wide.jpg", width: 400, height: 100},
		{name: "PNG", file: "small.png", width: 200, height: 150},
		{name: "TIFF", file: "small.tif", width: 30, height: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			writeImage(t, path, tt.width, tt.height)

			dims, err := GetImageDimensions(path)
			if err != nil {
				t.Fatalf("GetImageDimensions failed: %v", err)
			}
			if dims.Width != tt.width || dims.Height != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", dims.Width, dims.Height, tt.width, tt.height)
			}
		})
	}
}

func TestGetImageDimensions_Invalid(t *testing.T) {
	tmpDir := t.TempDir()

	empty := filepath.Join(tmpDir, "empty.png")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := GetImageDimensions(empty); !errors.Is(err, ErrNoDimensions) {
		t.Errorf("empty file error = %v, want ErrNoDimensions", err)
	}
	if _, err := GetImageDimensions(filepath.Join(tmpDir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}
