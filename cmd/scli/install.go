package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
	"github.com/jaspreet-dot-casa/stackprov/pkg/fsops"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
	"github.com/jaspreet-dot-casa/stackprov/pkg/installer"
	"github.com/jaspreet-dot-casa/stackprov/pkg/sysexec"
	"github.com/jaspreet-dot-casa/stackprov/pkg/tui"
)

// newInstallCmd creates the install subcommand
func newInstallCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the docker engine and provision its directories",
		Long: `Install the docker engine and its plugins from the vendor apt repository,
enable and start its service, add the acting user to the docker group, and
create the docker workspace and data trees.

Conflicting distro packages (docker.io, podman-docker, ...) are removed
best-effort first; their absence is not an error.

Requires root privileges: run via sudo.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// runInstall runs the full engine installation pipeline.
func runInstall(cmd *cobra.Command, yes bool) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}

	if !yes {
		confirmed, err := confirmInstall(cfg)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.OutOrStdout(), "Install cancelled.")
			return nil
		}
	}

	inst := installer.New(
		cfg,
		&sysexec.RealExecutor{},
		fsops.NewReal(),
		identity.NewResolver(),
		&identity.OSDirectory{},
		logger,
		cmd.OutOrStdout(),
	)

	report, err := inst.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderInstallReport(report))
	return nil
}

// confirmInstall prompts before mutating the system.
func confirmInstall(cfg *config.Config) (bool, error) {
	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Install Docker Engine?").
				Description(fmt.Sprintf("This registers %s and installs %d packages", cfg.Docker.RepoURL, len(cfg.Docker.Packages))).
				Affirmative("Yes, install").
				Negative("No, cancel").
				Value(&confirmed),
		),
	).WithTheme(tui.Theme())

	if err := form.Run(); err != nil {
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}

	return confirmed, nil
}
