package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
	"github.com/jaspreet-dot-casa/stackprov/pkg/doctor"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
	"github.com/jaspreet-dot-casa/stackprov/pkg/tui"
)

// newDoctorCmd creates the doctor subcommand
func newDoctorCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host dependencies",
		Long: `Check that the host satisfies the dependencies of the stack and install
commands: the docker engine and compose plugin, the engine service, the
shared group, and the workspace tree.

With --fix, fix commands for missing dependencies are executed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, fix)
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Run fix commands for missing dependencies")

	return cmd
}

// runDoctor runs all checks and reports; exit code is non-zero when
// anything required is missing.
func runDoctor(cmd *cobra.Command, fix bool) error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return err
	}

	id, err := identity.NewResolver().Resolve()
	if err != nil {
		return err
	}

	checker := doctor.NewChecker(cfg, id.Home)
	groups := checker.CheckAll()

	if fix {
		fixer := doctor.NewFixer()
		for _, group := range groups {
			for _, check := range group.Checks {
				if check.Status != doctor.StatusMissing || check.FixCommand == nil {
					continue
				}
				logger.Info("running fix", "check", check.ID, "command", check.FixCommand.Command)
				if err := fixer.RunFix(check.FixCommand); err != nil {
					return err
				}
			}
		}
		// Re-check so the report reflects the fixes.
		groups = checker.CheckAll()
	}

	summary := checker.GetSummary(groups)
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderChecks(groups, summary))

	if checker.HasIssues(groups) {
		return fmt.Errorf("%d dependency issue(s) found", summary.Missing+summary.Errors)
	}
	return nil
}
