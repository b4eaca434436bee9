package main

import (
	"errors"
	"fmt"
	"time"
)

// FileNameMode controls how destination file names are built
type FileNameMode int

const (
	NameUnchanged FileNameMode = iota
	NameDateOnly
	NameDateAndIterator
)

func (m FileNameMode) String() string {
	switch m {
	case NameUnchanged:
		return "unchanged"
	case NameDateOnly:
		return "date"
	case NameDateAndIterator:
		return "date-iterator"
	}
	return fmt.Sprintf("FileNameMode(%d)", int(m))
}

// OverwritePolicy decides what happens when the destination file already exists
type OverwritePolicy int

const (
	AlwaysKeep OverwritePolicy = iota
	OverwriteIfSourceNewer
	OverwriteIfSourceOlder
	AlwaysOverwrite
)

func (p OverwritePolicy) String() string {
	switch p {
	case AlwaysKeep:
		return "keep"
	case OverwriteIfSourceNewer:
		return "newer"
	case OverwriteIfSourceOlder:
		return "older"
	case AlwaysOverwrite:
		return "always"
	}
	return fmt.Sprintf("OverwritePolicy(%d)", int(p))
}

// DateSource records where a resolved date came from
type DateSource int

const (
	SourceExifOriginal DateSource = iota
	SourceXmpMetadataDate
	SourceFilesystem
)

func (s DateSource) String() string {
	switch s {
	case SourceExifOriginal:
		return "EXIF"
	case SourceXmpMetadataDate:
		return "XMP"
	case SourceFilesystem:
		return "FileModTime"
	}
	return fmt.Sprintf("DateSource(%d)", int(s))
}

// Action is the outcome of the conflict check for one file
type Action int

const (
	ActionCopy Action = iota
	ActionOverwrite
	ActionKeep
	ActionError
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "Copy"
	case ActionOverwrite:
		return "Overwrite"
	case ActionKeep:
		return "Keep"
	case ActionError:
		return "Error"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// SourceConfig is the fixed set of settings a run works with
type SourceConfig struct {
	SourcePath        string
	DestinationPath   string
	FileNameMode      FileNameMode
	SortingEnabled    bool
	MaxRecursionDepth int
	OverwritePolicy   OverwritePolicy
	Workers           int
	DryRun            bool
}

// Validate checks the settings before a run starts
func (c SourceConfig) Validate() error {
	if c.SourcePath == "" {
		return errors.New("source path is required")
	}
	if c.DestinationPath == "" {
		return errors.New("destination path is required")
	}
	if c.MaxRecursionDepth < 0 {
		return fmt.Errorf("max recursion depth must be >= 0, got %d", c.MaxRecursionDepth)
	}
	if c.FileNameMode < NameUnchanged || c.FileNameMode > NameDateAndIterator {
		return fmt.Errorf("unknown file name mode %d", int(c.FileNameMode))
	}
	if c.OverwritePolicy < AlwaysKeep || c.OverwritePolicy > AlwaysOverwrite {
		return fmt.Errorf("unknown overwrite policy %d", int(c.OverwritePolicy))
	}
	return nil
}

// MediaFile is a discovered candidate file
type MediaFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// ResolvedDate is the best-effort creation timestamp of a file
type ResolvedDate struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
	Source DateSource
}

func newResolvedDate(t time.Time, source DateSource) ResolvedDate {
	return ResolvedDate{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Source: source,
	}
}

// Time returns the date as a UTC time.Time
func (d ResolvedDate) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, d.Hour, d.Minute, d.Second, 0, time.UTC)
}

// Decision describes what was done (or planned) for one file
type Decision struct {
	Index      int
	Total      int
	SourcePath string
	Directory  string
	FileName   string
	Action     Action
	Date       ResolvedDate
	Err        error
}

// ErrorKind classifies recoverable per-file failures
type ErrorKind int

const (
	KindMetadata ErrorKind = iota
	KindDateParse
	KindDestinationCreate
	KindCopy
)

func (k ErrorKind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindDateParse:
		return "date-parse"
	case KindDestinationCreate:
		return "destination-create"
	case KindCopy:
		return "copy"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// FileError is a per-file failure collected in the run summary
type FileError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ErrSourceUnreadable is returned when the source root itself cannot be listed
var ErrSourceUnreadable = errors.New("source directory cannot be enumerated")

// RunSummary aggregates counters and errors for one run
type RunSummary struct {
	TotalFound     int
	FallbackSorted int
	Copied         int
	Overwritten    int
	Kept           int
	Failed         int
	BytesCopied    int64
	Errors         []*FileError
	Started        time.Time
	Finished       time.Time
}

func (s *RunSummary) addError(fe *FileError) {
	s.Errors = append(s.Errors, fe)
}

// FallbackPercent is the share of files dated from the filesystem, rounded to one decimal
func (s *RunSummary) FallbackPercent() float64 {
	if s.TotalFound == 0 {
		return 0
	}
	p := float64(s.FallbackSorted) * 100 / float64(s.TotalFound)
	return float64(int(p*10+0.5)) / 10
}
