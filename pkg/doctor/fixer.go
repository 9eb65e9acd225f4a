package doctor

import (
	"fmt"

	"github.com/jaspreet-dot-casa/stackprov/pkg/sysexec"
)

// fixCommands defines fix commands for each dependency.
var fixCommands = map[string]*FixCommand{
	IDEngine: {
		Description: "Install the engine from the vendor repository",
		Command:     "sudo scli install --yes",
		Sudo:        true,
	},
	IDCompose: {
		Description: "Install the compose plugin via apt",
		Command:     "sudo apt-get install -y docker-compose-plugin",
		Sudo:        true,
	},
	IDService: {
		Description: "Enable and start the engine service",
		Command:     "sudo systemctl enable --now docker",
		Sudo:        true,
	},
	IDSharedGroup: {
		Description: "Create the shared group",
		Command:     "sudo groupadd docker",
		Sudo:        true,
	},
}

// GetFixCommand returns the fix command for a dependency.
func GetFixCommand(checkID string) *FixCommand {
	return fixCommands[checkID]
}

// Fixer provides functionality to run fix commands.
type Fixer struct {
	executor sysexec.CommandExecutor
}

// NewFixer creates a new Fixer.
func NewFixer() *Fixer {
	return &Fixer{
		executor: &sysexec.RealExecutor{},
	}
}

// NewFixerWithExecutor creates a new Fixer with a custom executor.
func NewFixerWithExecutor(exec sysexec.CommandExecutor) *Fixer {
	return &Fixer{
		executor: exec,
	}
}

// RunFix executes a fix command.
func (f *Fixer) RunFix(fix *FixCommand) error {
	if fix == nil {
		return fmt.Errorf("no fix command available")
	}

	output, err := f.executor.CombinedOutput("sh", "-c", fix.Command)
	if err != nil {
		return fmt.Errorf("fix failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}
