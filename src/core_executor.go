package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// ensureDir creates dir and its parents. An existing directory, including
// one created concurrently, is not an error.
func ensureDir(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		if info, statErr := fs.Stat(dir); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// statDest returns the destination's info, nil if it does not exist
func statDest(fs afero.Fs, path string) (os.FileInfo, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return info, nil
}

// copyFile copies src to dst preserving permissions and modification time,
// returning the number of bytes written
func copyFile(fs afero.Fs, src, dst string) (int64, error) {
	srcFile, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", src, err)
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source %s: %w", src, err)
	}

	dstFile, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, srcInfo.Mode().Perm())
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	n, err := io.Copy(dstFile, srcFile)
	if err != nil {
		dstFile.Close()
		return n, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return n, fmt.Errorf("sync %s: %w", dst, err)
	}
	if err := dstFile.Close(); err != nil {
		return n, fmt.Errorf("close %s: %w", dst, err)
	}

	if err := fs.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return n, fmt.Errorf("set times on %s: %w", dst, err)
	}
	return n, nil
}

// replaceFile deletes dst and copies src in its place. Not atomic: a failed
// copy leaves no file at dst.
func replaceFile(fs afero.Fs, src, dst string) (int64, error) {
	if err := fs.Remove(dst); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove existing %s: %w", dst, err)
	}
	return copyFile(fs, src, dst)
}
