package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/service/builder"
)

var (
	// buildManifestPath to the manifest file.
	buildManifestPath string
	// buildInputDir holding the manifest's inputs.
	buildInputDir string
	// buildOutputDir receiving built artifacts.
	buildOutputDir string

	// buildCmd builds the artifacts the manifest declares.
	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the artifacts specified in the manifest.",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return builder.Run(ctx, &builder.Options{
				ManifestPath: buildManifestPath,
				InputDir:     buildInputDir,
				OutputDir:    buildOutputDir,
				FwupPath:     cfg.FwupPath,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	buildCmd.Flags().
		StringVarP(&buildManifestPath, "manifest-path", "m", manifest.Filename, "path to the manifest file")
	buildCmd.Flags().
		StringVarP(&buildInputDir, "input-dir", "i", ".", "path to the input directory")
	buildCmd.Flags().
		StringVarP(&buildOutputDir, "output-dir", "o", ".", "path to the output directory")

	rootCmd.AddCommand(buildCmd)
}
