package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunLog is the per-run log file the sorter writes its events to
type RunLog struct {
	ID     string
	Path   string
	Logger *logrus.Logger
	file   *os.File
}

// NewRunLog creates <dir>/run-<uuid>.log and a logger writing to it
func NewRunLog(dir string, verbose bool) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	id := uuid.NewString()
	path := filepath.Join(dir, "run-"+id+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file %s: %w", path, err)
	}

	logger := logrus.New()
	logger.SetOutput(f)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.WithField("run_id", id).Info("Log file created")
	return &RunLog{ID: id, Path: path, Logger: logger, file: f}, nil
}

// ReportPath is the summary report written next to the log
func (l *RunLog) ReportPath() string {
	return filepath.Join(filepath.Dir(l.Path), "run-"+l.ID+".txt")
}

// Close writes the closing line and closes the file
func (l *RunLog) Close() error {
	l.Logger.Info("Log file saved")
	return l.file.Close()
}

// LogSummary writes the final results block to the run log
func LogSummary(log logrus.FieldLogger, s *RunSummary) {
	log.Infof("Found %d files, out of which %.1f%% were sorted using the fallback method",
		s.TotalFound, s.FallbackPercent())
	switch len(s.Errors) {
	case 0:
		return
	case 1:
		log.Info("The following 1 error was caught:")
	default:
		log.Infof("The following %d errors were caught:", len(s.Errors))
	}
	for _, fe := range s.Errors {
		log.WithFields(logrus.Fields{"file": fe.Path, "kind": fe.Kind}).Info(fe.Err.Error())
	}
}

// WriteSummary renders the summary as a plain-text table
func WriteSummary(out io.Writer, s *RunSummary) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "FileFinder Report")
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Files found:\t%d\n", s.TotalFound)
	fmt.Fprintf(w, "Copied:\t%d\n", s.Copied)
	fmt.Fprintf(w, "Overwritten:\t%d\n", s.Overwritten)
	fmt.Fprintf(w, "Kept existing:\t%d\n", s.Kept)
	fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	fmt.Fprintf(w, "Data copied:\t%s\n", humanize.Bytes(uint64(s.BytesCopied)))
	fmt.Fprintf(w, "Sorted by last write time:\t%d (%.1f%%)\n", s.FallbackSorted, s.FallbackPercent())
	if !s.Finished.IsZero() {
		fmt.Fprintf(w, "Duration:\t%s\n", s.Finished.Sub(s.Started).Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(s.Errors) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(out, "\nErrors (%d):\n", len(s.Errors)); err != nil {
		return err
	}
	for _, fe := range s.Errors {
		if _, err := fmt.Fprintf(out, "  - %s\n    %s: %v\n", fe.Path, fe.Kind, fe.Err); err != nil {
			return err
		}
	}
	return nil
}

// GenerateReport writes the summary report to path
func GenerateReport(path string, s *RunSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for report %q: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file %q: %w", path, err)
	}
	defer f.Close()

	return WriteSummary(f, s)
}
