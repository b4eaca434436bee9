package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SplitName returns the final path segment split at its last dot. The
// extension is lower-cased and has no leading dot.
func SplitName(path string) (base, ext string) {
	name := filepath.Base(path)
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name, ""
	}
	return name[:i], strings.ToLower(name[i+1:])
}

// DateDirName is the per-day subdirectory used when sorting is enabled
func DateDirName(date ResolvedDate) string {
	return fmt.Sprintf("%d_%02d_%02d", date.Year, date.Month, date.Day)
}

// BuildDestination computes the target directory and file name for a file.
// iterator is the file's position in walk order for this run.
func BuildDestination(cfg SourceConfig, date ResolvedDate, originalPath string, iterator int) (dir, name string) {
	dir = cfg.DestinationPath
	if cfg.SortingEnabled {
		dir = filepath.Join(dir, DateDirName(date))
	}

	base, ext := SplitName(originalPath)
	switch cfg.FileNameMode {
	case NameDateOnly:
		base = fmt.Sprintf("%s_%d+%d+%d", base, date.Day, date.Month, date.Year)
	case NameDateAndIterator:
		base = fmt.Sprintf("%s_%d+%d+%d_%d", base, date.Day, date.Month, date.Year, iterator)
	}

	if ext == "" {
		return dir, base
	}
	return dir, base + "." + ext
}
