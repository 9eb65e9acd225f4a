// Package main provides the scli CLI tool for provisioning container
// stack directories and installing the docker engine.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// version is set via -ldflags during build
var version = "dev"

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

func main() {
	rootCmd := newRootCmd()

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for scli
func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "scli",
		Short: "Stack Provisioning CLI",
		Long: `scli provisions the directory layout for container application stacks
and installs the docker engine on a Linux host.

It supports:
  - Creating per-stack workspace trees under the acting user's home
  - Creating shared data trees under /opt with group-inherited access
  - Installing the docker engine from the vendor apt repository
  - Checking host dependencies with copy-pasteable fixes`,
		Version: version,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newStackCmd(),
		newInstallCmd(),
		newDoctorCmd(),
	)

	return rootCmd
}
