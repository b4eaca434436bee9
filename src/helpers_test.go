package main

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var errDenied = errors.New("permission denied")

// denyFs fails Open, OpenFile and MkdirAll for paths under any denied prefix.
// Stat still succeeds, like a directory whose listing is forbidden.
type denyFs struct {
	afero.Fs
	denied []string
}

func (d *denyFs) isDenied(name string) bool {
	name = filepath.Clean(name)
	for _, p := range d.denied {
		if name == p || strings.HasPrefix(name, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (d *denyFs) Open(name string) (afero.File, error) {
	if d.isDenied(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errDenied}
	}
	return d.Fs.Open(name)
}

func (d *denyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if d.isDenied(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: errDenied}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

func (d *denyFs) MkdirAll(path string, perm os.FileMode) error {
	if d.isDenied(path) {
		return &os.PathError{Op: "mkdir", Path: path, Err: errDenied}
	}
	return d.Fs.MkdirAll(path, perm)
}

// fakeReader returns canned metadata per path; unknown paths have none
type fakeReader struct {
	meta map[string]*Metadata
	errs map[string]error
}

func (f *fakeReader) Read(path string) (*Metadata, error) {
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	if md, ok := f.meta[path]; ok {
		return md, nil
	}
	return &Metadata{}, nil
}

func exifMeta(raw string) *Metadata {
	return &Metadata{ExifOriginal: raw}
}

func writeFile(t *testing.T, fs afero.Fs, path, content string, modTime time.Time) {
	t.Helper()

	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
	if !modTime.IsZero() {
		require.NoError(t, fs.Chtimes(path, modTime, modTime))
	}
}

// jpegWithDateTimeOriginal builds a minimal JPEG whose APP1 segment holds a
// little-endian TIFF with one Exif sub-IFD carrying DateTimeOriginal
func jpegWithDateTimeOriginal(value string) []byte {
	le := binary.LittleEndian
	str := append([]byte(value), 0)

	tiff := make([]byte, 44)
	copy(tiff, "II*\x00")
	le.PutUint32(tiff[4:], 8)

	// IFD0: ExifIFDPointer -> 26
	le.PutUint16(tiff[8:], 1)
	le.PutUint16(tiff[10:], 0x8769)
	le.PutUint16(tiff[12:], 4)
	le.PutUint32(tiff[14:], 1)
	le.PutUint32(tiff[18:], 26)
	le.PutUint32(tiff[22:], 0)

	// Exif IFD: DateTimeOriginal ASCII at 44
	le.PutUint16(tiff[26:], 1)
	le.PutUint16(tiff[28:], 0x9003)
	le.PutUint16(tiff[30:], 2)
	le.PutUint32(tiff[32:], uint32(len(str)))
	le.PutUint32(tiff[36:], 44)
	le.PutUint32(tiff[40:], 0)

	tiff = append(tiff, str...)

	app1 := append([]byte("Exif\x00\x00"), tiff...)
	segLen := make([]byte, 2)
	binary.BigEndian.PutUint16(segLen, uint16(len(app1)+2))

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1}
	out = append(out, segLen...)
	out = append(out, app1...)
	return append(out, 0xFF, 0xD9)
}

// jpegWithXmpSegment builds a JFIF JPEG whose only APP1 segment is an XMP
// packet, as written by most photo editors that drop EXIF
func jpegWithXmpSegment() []byte {
	packet := []byte("http://ns.adobe.com/xap/1.0/\x00" +
		`<x:xmpmeta xmlns:x="adobe:ns:meta/"><rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` +
		`<rdf:Description xmlns:xmp="http://ns.adobe.com/xap/1.0/" xmp:MetadataDate="2022-07-04T08:30:00"/>` +
		`</rdf:RDF></x:xmpmeta>`)

	jfif := []byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0, 1, 1, 0, 0, 1, 0, 1, 0, 0}

	segLen := make([]byte, 2)
	binary.BigEndian.PutUint16(segLen, uint16(len(packet)+2))

	out := []byte{0xFF, 0xD8}
	out = append(out, jfif...)
	out = append(out, 0xFF, 0xE1)
	out = append(out, segLen...)
	out = append(out, packet...)
	return append(out, 0xFF, 0xD9)
}
