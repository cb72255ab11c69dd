package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/service/validator"
)

var (
	// validateManifestPath to the manifest file.
	validateManifestPath string
	// validateInputDir holding the manifest's inputs.
	validateInputDir string

	// validateCmd checks that the manifest's inputs are satisfied.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check that the manifest's inputs are satisfied.",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return validator.Run(ctx, &validator.Options{
				ManifestPath: validateManifestPath,
				InputDir:     validateInputDir,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	validateCmd.Flags().
		StringVarP(&validateManifestPath, "manifest-path", "m", manifest.Filename, "path to the manifest file")
	validateCmd.Flags().
		StringVarP(&validateInputDir, "input-dir", "i", ".", "path to the input directory")

	rootCmd.AddCommand(validateCmd)
}
