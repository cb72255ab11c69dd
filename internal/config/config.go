package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/mason/internal/logger"
)

// Config holds tool settings shared by all mason commands.
type Config struct {
	// BuildDirName is the name of the transient build directory created
	// under the input directory.
	BuildDirName string `yaml:"build_dir"`
	// FwupPath is the firmware packager executable, resolved via PATH when
	// not absolute.
	FwupPath string `yaml:"fwup_path"`
	// LogLevel is the minimum console log level.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for tool settings.
	DefaultConfigFilename = "mason.yaml"

	// DefaultBuildDirName is the default transient build directory name.
	DefaultBuildDirName = "_build"

	// DefaultLogLevel is the default console log level.
	DefaultLogLevel = "info"
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Load reads settings from the provided path and validates them.
// The settings file is optional: a missing file at the default path yields
// the default configuration.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			cfg := new(Config)
			if err = Validate(cfg); err != nil {
				return nil, err
			}

			return cfg, nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the provided settings and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BuildDirName == "" {
		cfg.BuildDirName = DefaultBuildDirName
	}

	if cfg.FwupPath == "" {
		cfg.FwupPath = "fwup"
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("invalid log level: %q", cfg.LogLevel)
	}

	return nil
}
