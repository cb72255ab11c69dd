package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/mason/internal/config"
	"github.com/oshokin/mason/internal/logger"
	"github.com/oshokin/mason/internal/version"
)

var (
	// configPath to the settings YAML file.
	configPath string
	// logLevel overrides the settings file's log level when set.
	logLevel string

	// cfg holds the loaded settings, shared by all subcommands.
	cfg *config.Config

	// rootCmd represents the base command for the mason tool.
	rootCmd = &cobra.Command{
		Use:   "mason",
		Short: "Build disk images and firmware packages from declarative manifests.",
		Long: `Mason turns a declarative manifest (manifest.json) into disk image and
firmware package artifacts: it validates manifest inputs, builds FAT
filesystem images and fwup firmware packages, derives the environment
consumed by fwup templates and provisioning scripts, and runs the full
provisioning sequence.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error

			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}

			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			level, ok := logger.ParseLogLevel(cfg.LogLevel)
			if !ok {
				return fmt.Errorf("invalid log level: %q", cfg.LogLevel)
			}

			logger.SetLevel(level)

			return nil
		},
	}
)

// Execute runs the mason CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to settings file (default "+config.DefaultConfigFilename+")")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}
