package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
	"github.com/jaspreet-dot-casa/stackprov/pkg/fsops"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
	"github.com/jaspreet-dot-casa/stackprov/pkg/provision"
	"github.com/jaspreet-dot-casa/stackprov/pkg/tui"
)

// newStackCmd creates the stack subcommand
func newStackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stack <name>",
		Short: "Provision the workspace and data trees for a stack",
		Long: `Provision the per-user workspace tree and the shared data tree for one
application stack.

Creates (if absent):
  ~/komodo/stacks/<name>/{docker-compose.yml,.env,config/,logs/}
  /opt/appdata/<name>/data/

Ownership and permissions are re-applied to the whole workspace on every
run, so re-running is always safe. Existing file content is never touched.

The shared group (default: docker) must already exist; typically this
means running "scli install" or "sudo groupadd docker" first.`,
		Args: cobra.ExactArgs(1),
		RunE: runStack,
	}
}

// runStack provisions a single stack and prints the summary.
func runStack(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}

	provisioner := provision.New(
		provision.PolicyFrom(cfg),
		identity.NewResolver(),
		&identity.OSDirectory{},
		fsops.NewReal(),
		logger,
	)

	summary, err := provisioner.Provision(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderProvisionSummary(summary))
	return nil
}
