package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mason/internal/manifest"
	"github.com/oshokin/mason/internal/service/stager"
)

var (
	// createManifestPath to the manifest file.
	createManifestPath string
	// createOSReleasePath to the OS metadata file staged with the manifest.
	createOSReleasePath string
	// createInputDir holding the manifest's inputs.
	createInputDir string
	// createOutputDir receiving the staged tree.
	createOutputDir string

	// createCmd stages every manifest input into a self-contained tree.
	createCmd = &cobra.Command{
		Use:   "create",
		Short: "Stage the manifest and all of its inputs into an output directory.",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return stager.Run(ctx, &stager.Options{
				ManifestPath:  createManifestPath,
				OSReleasePath: createOSReleasePath,
				InputDir:      createInputDir,
				OutputDir:     createOutputDir,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	createCmd.Flags().
		StringVarP(&createManifestPath, "manifest-path", "m", manifest.Filename, "path to the manifest file")
	createCmd.Flags().
		StringVar(&createOSReleasePath, "os-release", "", "path to the OS release file to include")
	createCmd.Flags().
		StringVarP(&createInputDir, "input-dir", "i", ".", "path to the input directory")
	createCmd.Flags().
		StringVarP(&createOutputDir, "output-dir", "o", ".", "path to the output directory")

	_ = createCmd.MarkFlagRequired("os-release")

	rootCmd.AddCommand(createCmd)
}
