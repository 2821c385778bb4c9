package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// HistorySettings controls the validation history database.
type HistorySettings struct {
	// Enabled records every validate run
	Enabled bool `yaml:"enabled"`

	// DBPath overrides $SBAT_HOME/history/runs.db. Relative paths are
	// resolved against the sbat home directory.
	DBPath string `yaml:"db_path"`
}

// Settings are the tool's own options, as opposed to a model configuration.
type Settings struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// Strict reports unknown configuration keys as errors
	Strict bool `yaml:"strict"`

	// Color enables coloured terminal output when stdout is a terminal
	Color bool `yaml:"color"`

	History HistorySettings `yaml:"history"`
}

// Default returns Settings with default values
func Default() *Settings {
	return &Settings{
		LogLevel: "info",
		Strict:   false,
		Color:    true,
		History: HistorySettings{
			Enabled: true,
		},
	}
}

// Load reads settings from path.
// If the file doesn't exist, the defaults are returned without error.
// Keys absent from the file keep their default values.
func Load(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var file Settings
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	// A temporary map tells explicit false/empty values apart from absent keys.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil || rawMap == nil {
		return s, nil
	}

	if _, exists := rawMap["log_level"]; exists {
		s.LogLevel = file.LogLevel
	}
	if _, exists := rawMap["strict"]; exists {
		s.Strict = file.Strict
	}
	if _, exists := rawMap["color"]; exists {
		s.Color = file.Color
	}
	if historyMap, ok := rawMap["history"].(map[string]interface{}); ok {
		if _, exists := historyMap["enabled"]; exists {
			s.History.Enabled = file.History.Enabled
		}
		if _, exists := historyMap["db_path"]; exists {
			s.History.DBPath = file.History.DBPath
		}
	}

	return s, nil
}

// LoadDefault loads $SBAT_HOME/settings.yaml.
func LoadDefault() (*Settings, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// MergeWithFlags applies command line flags.
// Non-nil flag values override file values.
func (s *Settings) MergeWithFlags(logLevel *string, strict *bool, noColor *bool) {
	if logLevel != nil {
		s.LogLevel = *logLevel
	}
	if strict != nil {
		s.Strict = *strict
	}
	if noColor != nil && *noColor {
		s.Color = false
	}
}

// HistoryDBPath resolves the history database location.
func (s *Settings) HistoryDBPath() (string, error) {
	if s.History.DBPath == "" {
		return DefaultHistoryDBPath()
	}
	if filepath.IsAbs(s.History.DBPath) {
		return s.History.DBPath, nil
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, s.History.DBPath), nil
}

// Validate checks the settings values
func (s *Settings) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[s.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", s.LogLevel)
	}
	return nil
}
