package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// mediaExtensions is the fixed set of extensions the walker picks up:
// bmp gif jpg jpeg png img avi mov mp4 webm
var mediaExtensions = map[string]bool{
	".bmp": true, ".gif": true, ".jpg": true, ".jpeg": true, ".png": true,
	".img": true, ".avi": true, ".mov": true, ".mp4": true, ".webm": true,
}

// IsMediaFile reports whether path has a supported media extension
func IsMediaFile(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}

// Walker enumerates media files below a root directory
type Walker struct {
	Fs afero.Fs
}

// NewWalker returns a walker over the given filesystem
func NewWalker(fs afero.Fs) *Walker {
	return &Walker{Fs: fs}
}

// Walk lists media files under root, descending at most maxDepth directory
// levels. Unreadable subdirectories are skipped. Only a failure to list root
// itself is returned, wrapped in ErrSourceUnreadable.
func (w *Walker) Walk(root string, maxDepth int) ([]*MediaFile, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("max depth must be >= 0, got %d", maxDepth)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, root, err)
	}

	info, err := w.Fs.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceUnreadable, abs)
	}

	files := []*MediaFile{}
	if err := w.walkDir(abs, 0, maxDepth, &files); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, abs, err)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func (w *Walker) walkDir(dir string, depth, maxDepth int, files *[]*MediaFile) error {
	entries, err := afero.ReadDir(w.Fs, dir)
	if err != nil {
		return err
	}

	for _, info := range entries {
		path := filepath.Join(dir, info.Name())

		// Follow symlinks; cycles are bounded by maxDepth
		if info.Mode()&os.ModeSymlink != 0 {
			target, err := w.Fs.Stat(path)
			if err != nil {
				continue
			}
			info = target
		}

		if info.IsDir() {
			if depth < maxDepth {
				// Unreadable subtree is dropped, siblings continue
				_ = w.walkDir(path, depth+1, maxDepth, files)
			}
			continue
		}

		if !info.Mode().IsRegular() || !IsMediaFile(path) {
			continue
		}

		*files = append(*files, &MediaFile{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return nil
}
