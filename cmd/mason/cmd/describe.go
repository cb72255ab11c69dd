package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/service/describer"
)

var (
	// describeManifestPath to the manifest file.
	describeManifestPath string

	// describeCmd renders a human-readable summary of a manifest.
	describeCmd = &cobra.Command{
		Use:   "describe",
		Short: "Describe the contents of a manifest file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return describer.Run(ctx, &describer.Options{
				ManifestPath: describeManifestPath,
				Out:          cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	describeCmd.Flags().
		StringVarP(&describeManifestPath, "manifest-path", "m", manifest.Filename, "path to the manifest file")

	rootCmd.AddCommand(describeCmd)
}
