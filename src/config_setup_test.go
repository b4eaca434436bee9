package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrInitConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	cfg, recovered, err := loadOrInitConfig(path)
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, defaultConfigFile(), cfg)
}

func TestLoadOrInitConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	want := &ConfigFile{
		SourcePath:        "/photos",
		DestinationPath:   "/sorted",
		FileNameMode:      "date",
		SortingEnabled:    false,
		OverwritePolicy:   "always",
		MaxRecursionDepth: 12,
		Workers:           3,
	}
	require.NoError(t, saveConfig(path, want))

	got, recovered, err := loadOrInitConfig(path)
	require.NoError(t, err)
	assert.False(t, recovered)
	assert.Equal(t, want, got)
}

func TestLoadOrInitConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_path: /photos\n"), 0644))

	cfg, _, err := loadOrInitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/photos", cfg.SourcePath)
	assert.Equal(t, "date-iterator", cfg.FileNameMode)
	assert.Equal(t, "newer", cfg.OverwritePolicy)
	assert.True(t, cfg.SortingEnabled)
	assert.Equal(t, 5, cfg.MaxRecursionDepth)
}

func TestLoadOrInitConfig_InvalidFileIsReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_recursion_depth: [not, a, number\n"), 0644))

	cfg, recovered, err := loadOrInitConfig(path)
	require.NoError(t, err)
	assert.True(t, recovered)
	assert.Equal(t, defaultConfigFile(), cfg)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestParseFileNameMode(t *testing.T) {
	for input, want := range map[string]FileNameMode{
		"unchanged":     NameUnchanged,
		"DATE":          NameDateOnly,
		"date-iterator": NameDateAndIterator,
		"0":             NameUnchanged,
		"2":             NameDateAndIterator,
	} {
		got, err := ParseFileNameMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseFileNameMode("3")
	assert.Error(t, err)
	_, err = ParseFileNameMode("rename")
	assert.Error(t, err)
}

func TestParseOverwritePolicy(t *testing.T) {
	for input, want := range map[string]OverwritePolicy{
		"keep":   AlwaysKeep,
		"newer":  OverwriteIfSourceNewer,
		"Older":  OverwriteIfSourceOlder,
		"always": AlwaysOverwrite,
		"3":      AlwaysOverwrite,
	} {
		got, err := ParseOverwritePolicy(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseOverwritePolicy("sometimes")
	assert.Error(t, err)
}

func TestConfigFile_SourceConfig(t *testing.T) {
	cfg := &ConfigFile{
		SourcePath:        "/photos",
		DestinationPath:   "/sorted",
		FileNameMode:      "date",
		SortingEnabled:    true,
		OverwritePolicy:   "older",
		MaxRecursionDepth: 500,
		Workers:           0,
	}

	sc, err := cfg.SourceConfig()
	require.NoError(t, err)
	assert.Equal(t, SourceConfig{
		SourcePath:        "/photos",
		DestinationPath:   "/sorted",
		FileNameMode:      NameDateOnly,
		SortingEnabled:    true,
		MaxRecursionDepth: maxRecursionLimit,
		OverwritePolicy:   OverwriteIfSourceOlder,
		Workers:           1,
	}, sc)

	cfg.OverwritePolicy = "bogus"
	_, err = cfg.SourceConfig()
	assert.Error(t, err)
}

func TestRunSetupWizard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	answers := strings.Join([]string{
		"/photos",
		"/sorted",
		"1",
		"n",
		"-4",
		"3",
		"6",
	}, "\n") + "\n"

	var out bytes.Buffer
	cfg, err := runSetupWizard(strings.NewReader(answers), &out, path, defaultConfigFile())
	require.NoError(t, err)

	assert.Equal(t, "/photos", cfg.SourcePath)
	assert.Equal(t, "/sorted", cfg.DestinationPath)
	assert.Equal(t, "date", cfg.FileNameMode)
	assert.False(t, cfg.SortingEnabled)
	assert.Equal(t, 0, cfg.MaxRecursionDepth)
	assert.Equal(t, "always", cfg.OverwritePolicy)
	assert.Equal(t, 6, cfg.Workers)
	assert.Contains(t, out.String(), "Add date and iterator")

	saved, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, saved)
}

func TestRunSetupWizard_BlankAnswersKeepCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	current := defaultConfigFile()
	current.SourcePath = "/photos"
	current.DestinationPath = "/sorted"
	current.Workers = 2

	cfg, err := runSetupWizard(strings.NewReader(strings.Repeat("\n", 7)), &bytes.Buffer{}, path, current)
	require.NoError(t, err)

	assert.Equal(t, "/photos", cfg.SourcePath)
	assert.Equal(t, "/sorted", cfg.DestinationPath)
	assert.Equal(t, "date-iterator", cfg.FileNameMode)
	assert.True(t, cfg.SortingEnabled)
	assert.Equal(t, 5, cfg.MaxRecursionDepth)
	assert.Equal(t, "newer", cfg.OverwritePolicy)
	assert.Equal(t, 2, cfg.Workers)
}
