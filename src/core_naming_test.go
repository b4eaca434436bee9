package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		path     string
		wantBase string
		wantExt  string
	}{
		{"/a/photo.jpg", "photo", "jpg"},
		{"/a/IMG_0001.JPG", "IMG_0001", "jpg"},
		{"/a/archive.tar.mp4", "archive.tar", "mp4"},
		{"/a/noext", "noext", ""},
		{"/a/.hidden.png", ".hidden", "png"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			base, ext := SplitName(tt.path)
			assert.Equal(t, tt.wantBase, base)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestDateDirName(t *testing.T) {
	assert.Equal(t, "2021_03_15", DateDirName(ResolvedDate{Year: 2021, Month: 3, Day: 15}))
	assert.Equal(t, "1999_12_01", DateDirName(ResolvedDate{Year: 1999, Month: 12, Day: 1}))
}

func TestBuildDestination(t *testing.T) {
	date := ResolvedDate{Year: 2021, Month: 3, Day: 15, Hour: 10}
	dest := filepath.FromSlash("/dest")

	tests := []struct {
		name     string
		mode     FileNameMode
		sorting  bool
		iterator int
		wantDir  string
		wantName string
	}{
		{"date only sorted", NameDateOnly, true, 0, filepath.Join(dest, "2021_03_15"), "photo_15+3+2021.jpg"},
		{"unchanged flat", NameUnchanged, false, 4, dest, "photo.jpg"},
		{"unchanged sorted", NameUnchanged, true, 4, filepath.Join(dest, "2021_03_15"), "photo.jpg"},
		{"date and iterator", NameDateAndIterator, false, 7, dest, "photo_15+3+2021_7.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := SourceConfig{
				DestinationPath: dest,
				FileNameMode:    tt.mode,
				SortingEnabled:  tt.sorting,
			}
			dir, name := BuildDestination(cfg, date, "/src/photo.JPG", tt.iterator)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestBuildDestination_NoExtension(t *testing.T) {
	cfg := SourceConfig{DestinationPath: "/dest", FileNameMode: NameDateOnly}
	_, name := BuildDestination(cfg, ResolvedDate{Year: 2020, Month: 1, Day: 2}, "/src/clip", 0)
	assert.Equal(t, "clip_2+1+2020", name)
}

func TestBuildDestination_IteratorKeepsNamesUnique(t *testing.T) {
	cfg := SourceConfig{DestinationPath: "/dest", FileNameMode: NameDateAndIterator, SortingEnabled: true}
	date := ResolvedDate{Year: 2021, Month: 3, Day: 15}

	seen := map[string]bool{}
	for i, p := range []string{"/a/img.jpg", "/b/img.jpg", "/c/img.jpg"} {
		dir, name := BuildDestination(cfg, date, p, i)
		full := filepath.Join(dir, name)
		assert.False(t, seen[full], "duplicate destination %s", full)
		seen[full] = true
	}
}
