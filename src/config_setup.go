package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxRecursionLimit = 100

var errInvalidConfig = errors.New("invalid preferences file")

// ConfigFile represents the YAML preferences file
type ConfigFile struct {
	SourcePath        string `yaml:"source_path"`
	DestinationPath   string `yaml:"destination_path"`
	FileNameMode      string `yaml:"file_name_mode"`
	SortingEnabled    bool   `yaml:"sorting_enabled"`
	OverwritePolicy   string `yaml:"overwrite_policy"`
	MaxRecursionDepth int    `yaml:"max_recursion_depth"`
	Workers           int    `yaml:"workers"`
}

var (
	fileNameModeLabels = []string{
		"No, do not change the name",
		"Add date only",
		"Add date and iterator",
	}
	overwritePolicyLabels = []string{
		"No, always keep the duplicate",
		"Only overwrite if source file is newer",
		"Only overwrite if source file is older",
		"Yes, always overwrite the duplicate",
	}
)

// defaultConfigFile returns the preferences used when none are saved
func defaultConfigFile() *ConfigFile {
	return &ConfigFile{
		FileNameMode:      NameDateAndIterator.String(),
		SortingEnabled:    true,
		OverwritePolicy:   OverwriteIfSourceNewer.String(),
		MaxRecursionDepth: 5,
		Workers:           getDefaultWorkers(),
	}
}

// getConfigPath returns the path to the preferences file
func getConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filefinder.yaml"
	}
	return filepath.Join(home, ".filefinder.yaml")
}

// getDataDir returns the directory holding logs and the date cache
func getDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "FileFinderData"
	}
	return filepath.Join(dir, "FileFinderData")
}

// loadConfig loads preferences from a YAML file
func loadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfigFile()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w %s: %v", errInvalidConfig, path, err)
	}
	return cfg, nil
}

// loadOrInitConfig returns the saved preferences, or defaults when the file
// is missing. A file that cannot be parsed is deleted and defaults are used;
// recovered reports that case.
func loadOrInitConfig(path string) (cfg *ConfigFile, recovered bool, err error) {
	cfg, err = loadConfig(path)
	if err == nil {
		return cfg, false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfigFile(), false, nil
	}

	if errors.Is(err, errInvalidConfig) {
		if rmErr := os.Remove(path); rmErr != nil {
			return nil, false, fmt.Errorf("remove invalid preferences: %w", rmErr)
		}
		return defaultConfigFile(), true, nil
	}
	return nil, false, err
}

// saveConfig saves preferences to a YAML file
func saveConfig(path string, cfg *ConfigFile) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ParseFileNameMode accepts the mode name or its menu index
func ParseFileNameMode(s string) (FileNameMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m := NameUnchanged; m <= NameDateAndIterator; m++ {
		if s == m.String() || s == strconv.Itoa(int(m)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown file name mode %q (want unchanged, date or date-iterator)", s)
}

// ParseOverwritePolicy accepts the policy name or its menu index
func ParseOverwritePolicy(s string) (OverwritePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p := AlwaysKeep; p <= AlwaysOverwrite; p++ {
		if s == p.String() || s == strconv.Itoa(int(p)) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown overwrite policy %q (want keep, newer, older or always)", s)
}

// SourceConfig converts the preferences into run settings
func (c *ConfigFile) SourceConfig() (SourceConfig, error) {
	mode, err := ParseFileNameMode(c.FileNameMode)
	if err != nil {
		return SourceConfig{}, err
	}
	policy, err := ParseOverwritePolicy(c.OverwritePolicy)
	if err != nil {
		return SourceConfig{}, err
	}

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	return SourceConfig{
		SourcePath:        c.SourcePath,
		DestinationPath:   c.DestinationPath,
		FileNameMode:      mode,
		SortingEnabled:    c.SortingEnabled,
		MaxRecursionDepth: clampDepth(c.MaxRecursionDepth),
		OverwritePolicy:   policy,
		Workers:           workers,
	}, nil
}

func clampDepth(d int) int {
	if d < 0 {
		return 0
	}
	if d > maxRecursionLimit {
		return maxRecursionLimit
	}
	return d
}

// runSetupWizard asks for every setting, starting from cfg's values, and
// saves the result to path
func runSetupWizard(in io.Reader, out io.Writer, path string, cfg *ConfigFile) (*ConfigFile, error) {
	reader := bufio.NewReader(in)
	ask := func(prompt, def string) string {
		fmt.Fprintf(out, "   %s [%s]: ", prompt, def)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def
		}
		return answer
	}

	fmt.Fprintln(out, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                  FileFinder settings manager                   ║")
	fmt.Fprintln(out, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "These settings will be saved to:", path)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "1. Source path")
	fmt.Fprintln(out, "   (Path to the files you want sorted i.e. \"Family_pictures\")")
	cfg.SourcePath = ask("Path", cfg.SourcePath)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "2. Destination path")
	fmt.Fprintln(out, "   (Path to the destination folder i.e. \"Family_pictures_sorted\")")
	cfg.DestinationPath = ask("Path", cfg.DestinationPath)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "3. Should filenames be changed?")
	for i, label := range fileNameModeLabels {
		fmt.Fprintf(out, "   %d) %s\n", i, label)
	}
	mode, err := ParseFileNameMode(cfg.FileNameMode)
	if err != nil {
		mode = NameDateAndIterator
	}
	if m, err := ParseFileNameMode(ask("Choice", strconv.Itoa(int(mode)))); err == nil {
		mode = m
	}
	cfg.FileNameMode = mode.String()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "4. Should files be sorted into date folders?")
	def := "n"
	if cfg.SortingEnabled {
		def = "y"
	}
	answer := strings.ToLower(ask("y/n", def))
	cfg.SortingEnabled = answer == "y" || answer == "yes"

	fmt.Fprintln(out)
	fmt.Fprintln(out, "5. Recursive search depth")
	fmt.Fprintf(out, "   (How deep down should files be searched? 0-%d)\n", maxRecursionLimit)
	if d, err := strconv.Atoi(ask("Depth", strconv.Itoa(cfg.MaxRecursionDepth))); err == nil {
		cfg.MaxRecursionDepth = clampDepth(d)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "6. Should duplicates be overwritten?")
	for i, label := range overwritePolicyLabels {
		fmt.Fprintf(out, "   %d) %s\n", i, label)
	}
	policy, err := ParseOverwritePolicy(cfg.OverwritePolicy)
	if err != nil {
		policy = OverwriteIfSourceNewer
	}
	if p, err := ParseOverwritePolicy(ask("Choice", strconv.Itoa(int(policy)))); err == nil {
		policy = p
	}
	cfg.OverwritePolicy = policy.String()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "7. How many parallel workers for reading metadata?")
	fmt.Fprintf(out, "   (Your system has %d CPUs)\n", runtime.NumCPU())
	if w, err := strconv.Atoi(ask("Workers", strconv.Itoa(cfg.Workers))); err == nil && w >= 1 {
		cfg.Workers = w
	}

	if err := saveConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "✓ Preferences saved to:", path)
	fmt.Fprintln(out)

	return cfg, nil
}

// getDefaultWorkers returns recommended worker count
func getDefaultWorkers() int {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	return workers
}
