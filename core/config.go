package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"fluxgen/engine"
)

// Environment variables consumed by the CLI. Flag values always win
// over the defaults file; the defaults file wins over built-ins.
const (
	// EnvConfigFile points at a YAML defaults file. When unset,
	// DefaultConfigFile is tried and silently skipped if absent.
	EnvConfigFile = "FLUXGEN_CONFIG"
	// EnvHistoryDB enables run history at the given SQLite path.
	EnvHistoryDB = "FLUXGEN_HISTORY_DB"
	// EnvLogFile adds a rotating JSON log file at the given path.
	EnvLogFile = "FLUXGEN_LOG_FILE"
	// EnvVerbose sets the default for the -v flag.
	EnvVerbose = "FLUXGEN_VERBOSE"
)

// DefaultConfigFile is the defaults file looked up in the working
// directory when FLUXGEN_CONFIG is unset.
const DefaultConfigFile = "fluxgen.yaml"

// FileConfig are the optional defaults loadable from a YAML file.
// Zero values mean "not set" and leave the built-in default in place.
type FileConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Steps     int     `yaml:"steps"`
	Guidance  float64 `yaml:"guidance"`
	Strength  float64 `yaml:"strength"`
	HistoryDB string  `yaml:"history_db"`
	LogFile   string  `yaml:"log_file"`
}

// LoadFileConfig reads the YAML defaults file.
//
// When explicit is true a missing file is an error; otherwise a
// missing file yields an empty config, so the tool works with no
// configuration at all.
func LoadFileConfig(path string, explicit bool) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefaultFileConfig resolves the defaults file from the
// environment and loads it.
func LoadDefaultFileConfig() (*FileConfig, error) {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return LoadFileConfig(path, true)
	}
	return LoadFileConfig(DefaultConfigFile, false)
}

// ApplyDefaults overlays the file config onto engine parameters that
// are still at their built-in defaults. Called before flag values are
// applied, so flags keep the last word.
func (c *FileConfig) ApplyDefaults(p *engine.Params) {
	if c == nil {
		return
	}
	if c.Width > 0 {
		p.Width = c.Width
	}
	if c.Height > 0 {
		p.Height = c.Height
	}
	if c.Steps > 0 {
		p.NumSteps = c.Steps
	}
	if c.Guidance != 0 {
		p.GuidanceScale = c.Guidance
	}
	if c.Strength != 0 {
		p.Strength = c.Strength
	}
}

// HistoryDBPath returns the run-history database path, if any:
// FLUXGEN_HISTORY_DB wins over the defaults file; empty disables
// history.
func (c *FileConfig) HistoryDBPath() string {
	if path := os.Getenv(EnvHistoryDB); path != "" {
		return path
	}
	if c != nil {
		return c.HistoryDB
	}
	return ""
}

// LogFilePath returns the rotating log file path, if any.
func (c *FileConfig) LogFilePath() string {
	if path := os.Getenv(EnvLogFile); path != "" {
		return path
	}
	if c != nil {
		return c.LogFile
	}
	return ""
}
