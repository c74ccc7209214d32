package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"photo-index/internal/database"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "photos.db"),
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, db *database.Database) {
	t.Helper()

	tx, err := db.BeginBatch()
	if err != nil {
		t.Fatal(err)
	}
	dirs := []*database.Directory{
		{UserPath: "/", Path: "/albums", Name: "/", ModifiedTime: "2024-01-01 00:00:00"},
		{UserPath: "/2020", Path: "/albums/2020", ParentUserPath: strPtr("/"), Name: "2020",
			Width: 667, Height: 500, AspectRatio: 1.334, ModifiedTime: "2024-01-01 00:00:00", NumPhotos: 1},
	}
	for _, d := range dirs {
		if err := db.ReplaceDirectory(tx, d); err != nil {
			t.Fatal(db.EndBatch(tx, err))
		}
	}
	photo := &database.Photo{
		UserPath: "/2020", Filename: "a.jpg", Path: "/albums/2020/a.jpg", URL: "/photo/2020/a.jpg",
		Width: 300, Height: 200, AspectRatio: 1.5, Size: 1234, ModifiedTime: "2024-01-01 00:00:00",
	}
	if err := db.ReplacePhoto(tx, photo); err != nil {
		t.Fatal(db.EndBatch(tx, err))
	}
	if err := db.EndBatch(tx, nil); err != nil {
		t.Fatal(err)
	}
}

func TestPrintUsage(t *testing.T) {
	var out bytes.Buffer
	printUsage(&out)

	for _, want := range []string{"Usage: lspath", "ls [PATH]", "status", "show PATH", "DATABASE_DIR"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestDatabaseOptions(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DIR", "/srv/index")

	opts := databaseOptions()
	if opts.Driver != database.DriverSQLite {
		t.Errorf("Driver = %q, want sqlite3", opts.Driver)
	}
	if opts.Path != filepath.Join("/srv/index", "photos.db") {
		t.Errorf("Path = %q", opts.Path)
	}

	t.Setenv("DATABASE_DIR", "")
	if got := databaseOptions().Path; got != filepath.Join(defaultDatabaseDir, "photos.db") {
		t.Errorf("default Path = %q", got)
	}

	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("DB_HOST", "db")
	opts = databaseOptions()
	if opts.Path != "" || opts.Host != "db" {
		t.Errorf("mysql options = %+v", opts)
	}
}

func TestListPathIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := setupTestDB(t)
	seed(t, db)

	var out bytes.Buffer
	if !listPath(context.Background(), db, "/2020", &out) {
		t.Fatal("listPath failed")
	}

	var contents database.PathContents
	if err := json.Unmarshal(out.Bytes(), &contents); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if contents.UserPath != "/2020" {
		t.Errorf("user_path = %q", contents.UserPath)
	}
	if len(contents.Lightbox) != 1 || contents.Lightbox[0].Filename != "a.jpg" {
		t.Errorf("lightbox = %+v", contents.Lightbox)
	}

	out.Reset()
	if !listPath(context.Background(), db, "/", &out) {
		t.Fatal("listPath failed for root")
	}
	if !strings.Contains(out.String(), `"2020"`) {
		t.Errorf("root listing should contain the 2020 directory:\n%s", out.String())
	}
}

func TestShowStatusIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := setupTestDB(t)

	var out bytes.Buffer
	if !showStatus(context.Background(), db, &out) {
		t.Fatal("showStatus failed on an empty index")
	}
	if !strings.Contains(out.String(), "Last run:    never") {
		t.Errorf("expected no last run, got:\n%s", out.String())
	}

	seed(t, db)
	err := db.SetLastRun(context.Background(), database.RunRecord{RunID: "run-1", Target: "/albums", PhotosAdded: 1})
	if err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if !showStatus(context.Background(), db, &out) {
		t.Fatal("showStatus failed")
	}
	for _, want := range []string{"Directories: 2", "Photos:      1", "run-1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("status missing %q:\n%s", want, out.String())
		}
	}
}

func TestShowStatusWithClosedDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := setupTestDB(t)
	_ = db.Close()

	var out bytes.Buffer
	if showStatus(context.Background(), db, &out) {
		t.Error("showStatus should fail on a closed database")
	}
}

func TestShowRecordIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	db := setupTestDB(t)
	seed(t, db)
	ctx := context.Background()

	var out bytes.Buffer
	if !showRecord(ctx, db, "/2020", "", &out) {
		t.Fatal("showRecord failed for directory")
	}
	var dir database.Directory
	if err := json.Unmarshal(out.Bytes(), &dir); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if dir.UserPath != "/2020" || dir.NumPhotos != 1 {
		t.Errorf("directory = %+v", dir)
	}

	out.Reset()
	if !showRecord(ctx, db, "/2020", "a.jpg", &out) {
		t.Fatal("showRecord failed for photo")
	}
	var photo database.Photo
	if err := json.Unmarshal(out.Bytes(), &photo); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if photo.Filename != "a.jpg" || photo.Size != 1234 {
		t.Errorf("photo = %+v", photo)
	}

	tests := []struct {
		name     string
		userPath string
		filename string
	}{
		{name: "missing directory", userPath: "/nope"},
		{name: "missing photo", userPath: "/2020", filename: "b.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if showRecord(ctx, db, tt.userPath, tt.filename, &out) {
				t.Error("showRecord succeeded for an unindexed record")
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output: %s", out.String())
			}
		})
	}
}
