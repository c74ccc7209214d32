package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"strings"
	"testing"

	"photo-index/internal/indexer"
	"photo-index/internal/lock"
	"photo-index/internal/startup"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    cliOptions
		wantErr string
	}{
		{
			name: "dry run by default",
			args: []string{"--path", "/photos/2020"},
			want: cliOptions{path: "/photos/2020"},
		},
		{
			name: "all options",
			args: []string{
				"--path=/srv/albums/trip", "--root", "/srv/albums", "--force", "--for-real",
				"--refresh-dirs", "--db-driver", "mysql", "--db-dsn", "u@tcp(db)/photos", "--password-prompt",
			},
			want: cliOptions{
				path: "/srv/albums/trip", root: "/srv/albums", force: true, forReal: true,
				refreshDirs: true, dbDriver: "mysql", dbDSN: "u@tcp(db)/photos", passwordPrompt: true,
			},
		},
		{
			name:    "path is required",
			args:    []string{"--for-real"},
			wantErr: "--path is required",
		},
		{
			name:    "stray arguments",
			args:    []string{"--path", "/photos", "extra"},
			wantErr: "unexpected arguments",
		},
		{
			name:    "unknown flag",
			args:    []string{"--path", "/photos", "--dry-run"},
			wantErr: "flag provided but not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := parseFlags(tt.args, &out)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("parseFlags() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() error = %v", err)
			}
			if *got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-h"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("parseFlags(-h) error = %v, want flag.ErrHelp", err)
	}
	if !strings.Contains(out.String(), "Usage: photo-index --path DIR") {
		t.Errorf("usage not printed, got %q", out.String())
	}
}

func TestApplyOverrides(t *testing.T) {
	config := &startup.Config{
		PhotosRoot:     "/photos",
		DatabaseDriver: startup.DriverSQLite,
		DatabaseDir:    "/database",
		LockBackend:    startup.LockNone,
	}
	if err := config.Validate(); err != nil {
		t.Fatal(err)
	}

	err := applyOverrides(config, &cliOptions{
		path:        "/srv/albums/x",
		root:        "/srv/albums",
		dbDriver:    startup.DriverMySQL,
		dbDSN:       "indexer@tcp(db:3306)/photos",
		refreshDirs: true,
	})
	if err != nil {
		t.Fatalf("applyOverrides() error = %v", err)
	}

	if config.PhotosRoot != "/srv/albums" {
		t.Errorf("PhotosRoot = %q", config.PhotosRoot)
	}
	if config.DatabaseDriver != startup.DriverMySQL || config.DatabaseDSN == "" {
		t.Errorf("database = %q %q", config.DatabaseDriver, config.DatabaseDSN)
	}
	if config.DatabasePath != "" {
		t.Errorf("DatabasePath = %q, want empty after switching to mysql", config.DatabasePath)
	}
	if !config.RefreshDirs {
		t.Error("RefreshDirs not applied")
	}

	if err := applyOverrides(config, &cliOptions{dbDriver: "oracle"}); err == nil {
		t.Error("expected an error for an unknown driver")
	}
}

func TestNewLocker(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: startup.LockNone},
		{backend: startup.LockFile},
		{backend: startup.LockRedis},
		{backend: "zookeeper", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			config := &startup.Config{
				LockBackend: tt.backend,
				LockDir:     t.TempDir(),
				RedisAddr:   "127.0.0.1:0",
			}
			locker, closeFn, err := newLocker(config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newLocker() error = %v", err)
			}
			if locker == nil || closeFn == nil {
				t.Fatal("newLocker() returned nil locker or close func")
			}
			closeFn()
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: exitOK},
		{name: "missing target", err: fmt.Errorf("walk: %w", indexer.ErrTargetNotFound), want: exitTargetNotFound},
		{name: "outside root", err: indexer.ErrOutsideRoot, want: exitTargetNotFound},
		{name: "locked", err: fmt.Errorf("failed to lock /photos: %w", lock.ErrLocked), want: exitLocked},
		{name: "disjoint sets", err: indexer.ErrDisjointSets, want: exitFailure},
		{name: "other", err: errors.New("disk on fire"), want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	result := &indexer.Result{
		RunID:         "abc",
		DirsAdded:     2,
		PhotosAdded:   5,
		PhotosRemoved: 1,
		Skipped:       []indexer.SkippedFile{{Path: "/photos/bad.jpg", Reason: "no dimensions"}},
	}

	got := summarize(result)
	if got.RunID != "abc" || got.DirsAdded != 2 || got.PhotosAdded != 5 || got.PhotosRemoved != 1 {
		t.Errorf("summarize() = %+v", got)
	}
	if len(got.Skipped) != 1 || got.Skipped[0] != "/photos/bad.jpg (no dimensions)" {
		t.Errorf("Skipped = %v", got.Skipped)
	}
}
