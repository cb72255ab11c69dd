package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/mason/internal/service/provisioner"
)

var (
	// provisionInputDir holding the manifest and its inputs.
	provisionInputDir string
	// provisionProfile optionally selects a provisioning profile.
	provisionProfile string

	// provisionCmd runs the full provisioning sequence.
	provisionCmd = &cobra.Command{
		Use:   "provision",
		Short: "Build all artifacts and run the provisioning script.",
		Long: `Provision builds every image of every storage device into the build
directory, assembles device-level firmware packages with the derived
environment, and finally executes the provisioning script. The sequence is
fail-fast: each step depends on the artifacts of the previous one.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return provisioner.Run(ctx, &provisioner.Options{
				InputDir:     provisionInputDir,
				BuildDirName: cfg.BuildDirName,
				Profile:      provisionProfile,
				FwupPath:     cfg.FwupPath,
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	provisionCmd.Flags().
		StringVarP(&provisionInputDir, "input-dir", "i", ".", "path to the input directory")
	provisionCmd.Flags().
		StringVarP(&provisionProfile, "profile", "p", "", "provisioning profile to use")

	rootCmd.AddCommand(provisionCmd)
}
