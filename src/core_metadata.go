package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// xmpMetadataDate is the XMP property used when EXIF has no capture time
const xmpMetadataDate = "MetadataDate"

// exifExtensions are the formats goexif can decode directly
var exifExtensions = map[string]bool{
	".jpg": true, ".jpeg": true,
}

// Metadata is the embedded metadata relevant to date resolution
type Metadata struct {
	ExifOriginal string
	Xmp          map[string]string
}

// MetadataReader reads embedded metadata for a file
type MetadataReader interface {
	Read(path string) (*Metadata, error)
}

// MetadataService reads EXIF with goexif and XMP with a shared exiftool process
type MetadataService struct {
	Fs  afero.Fs
	Log logrus.FieldLogger

	mu          sync.Mutex
	et          *exiftool.Exiftool
	xmpDisabled bool

	// xmp is swapped out in tests that run without exiftool
	xmp func(path string) (map[string]string, error)
}

// NewMetadataService returns a reader over fs. XMP is read only when the
// exiftool binary can be started.
func NewMetadataService(fs afero.Fs, log logrus.FieldLogger) *MetadataService {
	s := &MetadataService{Fs: fs, Log: log}
	s.xmp = s.readXmp
	return s
}

// DisableXMP turns off the exiftool lookup
func (s *MetadataService) DisableXMP() {
	s.mu.Lock()
	s.xmpDisabled = true
	s.mu.Unlock()
}

// Close stops the exiftool process if it was started
func (s *MetadataService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.et != nil {
		s.et.Close()
		s.et = nil
	}
}

func (s *MetadataService) Read(path string) (*Metadata, error) {
	md := &Metadata{Xmp: map[string]string{}}

	if exifExtensions[strings.ToLower(filepath.Ext(path))] {
		original, err := s.readExifOriginal(path)
		if err != nil {
			return nil, err
		}
		md.ExifOriginal = original
	}

	// exiftool is only consulted when EXIF cannot date the file
	if _, err := ParseMetadataDate(md.ExifOriginal); err == nil {
		return md, nil
	}

	xmp, err := s.xmp(path)
	if err != nil {
		return nil, err
	}
	for k, v := range xmp {
		md.Xmp[k] = v
	}
	return md, nil
}

// readExifOriginal returns the raw DateTimeOriginal string, or "" if the file
// has no EXIF segment or no such tag
func (s *MetadataService) readExifOriginal(path string) (string, error) {
	f, err := s.Fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	switch {
	case err == nil:
	case x == nil && noExifSegment(err):
		return "", nil
	case x != nil && !exif.IsCriticalError(err):
		// Broken sub-IFDs, the main fields are still usable
	default:
		return "", fmt.Errorf("decode exif %s: %w", path, err)
	}

	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return "", nil
	}
	value, err := tag.StringVal()
	if err != nil {
		return "", fmt.Errorf("read DateTimeOriginal %s: %w", path, err)
	}
	return strings.TrimSpace(value), nil
}

// noExifSegment reports whether goexif stopped before reaching TIFF data:
// no APP1 marker, a file shorter than the header, or a first APP1 segment
// that is not EXIF (typically XMP)
func noExifSegment(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "failed to find exif intro marker") ||
		strings.HasPrefix(msg, "exif: error reading 4 byte header")
}

// ensureExifTool lazily starts exiftool; nil means XMP is unavailable
func (s *MetadataService) ensureExifTool() *exiftool.Exiftool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.et != nil || s.xmpDisabled {
		return s.et
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		s.xmpDisabled = true
		if s.Log != nil {
			s.Log.WithError(err).Warn("exiftool not available, XMP dates disabled")
		}
		return nil
	}
	s.et = et
	return s.et
}

func (s *MetadataService) readXmp(path string) (map[string]string, error) {
	et := s.ensureExifTool()
	if et == nil {
		return nil, nil
	}

	s.mu.Lock()
	infos := et.ExtractMetadata(path)
	s.mu.Unlock()

	out := map[string]string{}
	for _, info := range infos {
		if info.Err != nil {
			return nil, fmt.Errorf("exiftool %s: %w", path, info.Err)
		}
		if value, err := info.GetString(xmpMetadataDate); err == nil && value != "" {
			out[xmpMetadataDate] = value
		}
	}
	return out, nil
}
