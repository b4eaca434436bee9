package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	layoutYearFirst = "2006:01:02 15:04:05"
	layoutDayFirst  = "02/01/2006 15:04:05"
)

// xmpLayouts are tried after the two metadata layouts for XMP values,
// which exiftool reports with a zone offset
var xmpLayouts = []string{
	"2006:01:02 15:04:05Z07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseMetadataDate parses a metadata date string. A string starting with
// four ASCII digits is read as yyyy:MM:dd HH:mm:ss first, anything else as
// dd/MM/yyyy HH:mm:ss first; the other layout is tried second.
func ParseMetadataDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	layouts := []string{layoutDayFirst, layoutYearFirst}
	if startsWithYear(raw) {
		layouts = []string{layoutYearFirst, layoutDayFirst}
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// ParseXmpDate accepts the metadata layouts plus ISO-8601 forms. Zoned values
// keep their wall clock.
func ParseXmpDate(raw string) (time.Time, error) {
	if t, err := ParseMetadataDate(raw); err == nil {
		return t, nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range xmpLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized XMP date %q", raw)
}

func startsWithYear(s string) bool {
	if len(s) < 4 {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Resolution is a resolved date plus the recoverable error, if any, that
// forced the filesystem fallback
type Resolution struct {
	Date ResolvedDate
	Err  *FileError
}

// Fallback reports whether the date came from the filesystem
func (r Resolution) Fallback() bool {
	return r.Date.Source == SourceFilesystem
}

// DateResolver picks the best available timestamp for a file
type DateResolver struct {
	Fs    afero.Fs
	Meta  MetadataReader
	Cache *Cache
}

// Resolve never fails: EXIF original time, then XMP MetadataDate, then the
// file's last-write time in UTC.
func (r *DateResolver) Resolve(path string) Resolution {
	info, statErr := r.Fs.Stat(path)

	if statErr == nil && r.Cache != nil {
		if date, ok := r.Cache.Get(path, info.Size(), info.ModTime()); ok {
			return Resolution{Date: date}
		}
	}

	if r.Meta == nil {
		return r.fallback(path, info, statErr, nil)
	}

	md, err := r.Meta.Read(path)
	if err != nil {
		return r.fallback(path, info, statErr, &FileError{Path: path, Kind: KindMetadata, Err: err})
	}
	if md == nil {
		return r.fallback(path, info, statErr, nil)
	}

	var parseErr error

	if md.ExifOriginal != "" {
		t, err := ParseMetadataDate(md.ExifOriginal)
		if err == nil {
			return r.resolved(path, info, statErr, newResolvedDate(t, SourceExifOriginal))
		}
		parseErr = err
	}

	if value := md.Xmp[xmpMetadataDate]; value != "" {
		t, err := ParseXmpDate(value)
		if err == nil {
			return r.resolved(path, info, statErr, newResolvedDate(t, SourceXmpMetadataDate))
		}
		parseErr = err
	}

	if parseErr != nil {
		return r.fallback(path, info, statErr, &FileError{Path: path, Kind: KindDateParse, Err: parseErr})
	}
	return r.fallback(path, info, statErr, nil)
}

func (r *DateResolver) resolved(path string, info os.FileInfo, statErr error, date ResolvedDate) Resolution {
	if statErr == nil && r.Cache != nil {
		r.Cache.Put(path, info.Size(), info.ModTime(), date)
	}
	return Resolution{Date: date}
}

func (r *DateResolver) fallback(path string, info os.FileInfo, statErr error, cause *FileError) Resolution {
	if statErr != nil {
		// Ultimate fallback to current time
		if cause == nil {
			cause = &FileError{Path: path, Kind: KindMetadata, Err: statErr}
		}
		return Resolution{Date: newResolvedDate(time.Now().UTC(), SourceFilesystem), Err: cause}
	}
	return Resolution{Date: newResolvedDate(info.ModTime().UTC(), SourceFilesystem), Err: cause}
}
