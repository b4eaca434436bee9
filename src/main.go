package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

func main() {
	os.Exit(run())
}

// run executes one sort and returns the process exit code
func run() int {
	configPath := getConfigPath()
	prefs, recovered, err := loadOrInitConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading preferences: %v\n", err)
		return 1
	}
	if recovered {
		fmt.Printf("Preferences file %s was invalid and has been reset\n", configPath)
	}

	// Flags default to the saved preferences
	flag.StringVar(&prefs.SourcePath, "source", prefs.SourcePath, "Directory to search for media files")
	flag.StringVar(&prefs.DestinationPath, "dest", prefs.DestinationPath, "Directory the sorted copies are written to")
	flag.StringVar(&prefs.FileNameMode, "name-mode", prefs.FileNameMode, "File names: unchanged, date or date-iterator")
	flag.BoolVar(&prefs.SortingEnabled, "sort", prefs.SortingEnabled, "Sort copies into yyyy_MM_dd folders")
	flag.IntVar(&prefs.MaxRecursionDepth, "depth", prefs.MaxRecursionDepth, "How many directory levels below the source to search")
	flag.StringVar(&prefs.OverwritePolicy, "overwrite", prefs.OverwritePolicy, "Existing files: keep, newer, older or always")
	flag.IntVar(&prefs.Workers, "workers", prefs.Workers, "Number of parallel metadata readers")
	dryRun := flag.Bool("dry-run", false, "Plan the run without copying anything")
	noTUI := flag.Bool("no-tui", false, "Disable TUI, use simple CLI output")
	noCache := flag.Bool("no-cache", false, "Do not read or write the date cache")
	logDir := flag.String("log-dir", filepath.Join(getDataDir(), "logs"), "Directory for run logs and reports")
	reconfigure := flag.Bool("reconfigure", false, "Run the settings manager before sorting")
	verbose := flag.Bool("verbose", false, "Log every file found")

	flag.Parse()

	if *reconfigure || prefs.SourcePath == "" || prefs.DestinationPath == "" {
		prefs, err = runSetupWizard(os.Stdin, os.Stdout, configPath, prefs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	} else if err := saveConfig(configPath, prefs); err != nil {
		fmt.Printf("Warning: preferences not saved: %v\n", err)
	}

	config, err := prefs.SourceConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	config.DryRun = *dryRun

	runLog, err := NewRunLog(*logDir, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer runLog.Close()
	log := runLog.Logger.WithField("run_id", runLog.ID)

	var cache *Cache
	if !*noCache {
		cache, err = OpenCache(filepath.Join(getDataDir(), "cache"), log)
		if err != nil {
			fmt.Printf("Warning: cache disabled: %v\n", err)
			log.WithError(err).Warn("Cache disabled")
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	fs := afero.NewOsFs()
	meta := NewMetadataService(fs, log)
	defer meta.Close()

	sorter := NewSorter(fs, meta, cache, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary *RunSummary
	var runErr error
	if *noTUI {
		summary, runErr = runCLI(ctx, config, sorter, cache)
	} else {
		summary, runErr = runTUI(ctx, config, sorter)
	}

	if summary != nil && summary.TotalFound > 0 {
		LogSummary(log, summary)
		reportPath := runLog.ReportPath()
		if err := GenerateReport(reportPath, summary); err != nil {
			fmt.Printf("Warning: report not written: %v\n", err)
		} else if *noTUI {
			fmt.Printf("Report written to %s\n", reportPath)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			fmt.Println("Run cancelled")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		}
		return 1
	}
	return 0
}

func runCLI(ctx context.Context, config SourceConfig, sorter *Sorter, cache *Cache) (*RunSummary, error) {
	fmt.Println("FileFinder")
	fmt.Println("==========")
	fmt.Println()

	// Configuration display
	fmt.Println("Configuration:")
	fmt.Printf("  Source:       %s\n", config.SourcePath)
	fmt.Printf("  Destination:  %s\n", config.DestinationPath)
	fmt.Printf("  File names:   %s\n", fileNameModeLabels[config.FileNameMode])
	fmt.Printf("  Date folders: %v\n", config.SortingEnabled)
	fmt.Printf("  Depth:        %d\n", config.MaxRecursionDepth)
	fmt.Printf("  Overwrite:    %s\n", overwritePolicyLabels[config.OverwritePolicy])
	fmt.Printf("  Workers:      %d\n", config.Workers)

	fmt.Println()
	if config.DryRun {
		fmt.Println("Mode: DRY RUN (no changes will be made)")
	} else {
		fmt.Println("Mode: COPY (source files are never modified)")
	}
	fmt.Println()

	if cache != nil {
		total, exifCount, xmpCount := cache.GetStats()
		fmt.Printf("Cache: %d dates (%d from EXIF, %d from XMP)\n", total, exifCount, xmpCount)
		fmt.Println()
	}

	fmt.Printf("Searching for files in %s. This will take a while\n", config.SourcePath)

	sorter.OnScanned = func(total int) {
		fmt.Printf("%d file(s) were found\n", total)
		fmt.Println()
		fmt.Println("Copying files...")
	}
	sorter.OnDecision = func(d Decision) {
		percent := float64(d.Index+1) * 100 / float64(d.Total)
		fmt.Printf("\r  Progress: [%-50s] %3.0f%% (%d/%d) %s",
			progressBar(percent),
			percent,
			d.Index+1,
			d.Total,
			truncateFilePath(d.SourcePath, 60))
		if d.Action == ActionError {
			fmt.Printf("\r%s\r", strings.Repeat(" ", 150))
			fmt.Printf("  File %s caused an error\n", d.SourcePath)
		}
	}

	summary, err := sorter.Run(ctx, config)
	fmt.Printf("\r%s\r", strings.Repeat(" ", 150)) // Clear line
	if err != nil && (summary == nil || summary.TotalFound == 0) {
		return summary, err
	}

	fmt.Println()
	WriteSummary(os.Stdout, summary)
	fmt.Println()
	if config.DryRun {
		fmt.Println("This was a DRY RUN. Run without -dry-run to copy the files.")
	}
	return summary, err
}

// progressBar creates a text progress bar
func progressBar(percent float64) string {
	const width = 50
	filled := int(percent / 2) // 50 chars = 100%
	if filled > width {
		filled = width
	}
	var bar strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled:
			bar.WriteByte('=')
		case i == filled:
			bar.WriteByte('>')
		default:
			bar.WriteByte(' ')
		}
	}
	return bar.String()
}

// truncateFilePath shortens a file path for display
func truncateFilePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// Show just the filename
	base := filepath.Base(path)
	if len(base) <= maxLen {
		return "..." + base
	}
	return "..." + base[len(base)-maxLen+3:]
}
