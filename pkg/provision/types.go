// Package provision creates and repairs the directory trees for application
// stacks: a per-user workspace tree and a shared system data tree, each with
// a fixed ownership and permission policy.
package provision

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
)

var (
	// ErrInvalidName indicates a stack name outside [A-Za-z0-9._-]+.
	ErrInvalidName = errors.New("invalid stack name")

	// ErrGroupMissing indicates the shared group does not exist on the
	// host. The group is a hard precondition and is never auto-created.
	ErrGroupMissing = errors.New("shared group does not exist")
)

var stackNameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateName validates a stack name. Names are used verbatim as path
// segments, so only letters, digits, dot, underscore and hyphen are
// accepted. No trimming or case normalization is applied.
func ValidateName(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if !stackNameRegex.MatchString(input) {
		return "", fmt.Errorf("%w: %q may only contain letters, digits, '.', '_' and '-'", ErrInvalidName, input)
	}
	return input, nil
}

// Policy is the tree policy the Provisioner enforces.
type Policy struct {
	WorkspaceDir string // directory name under the acting user's home
	AppDataBase  string // absolute base of the shared data trees
	SharedGroup  string
	ComposeFile  string
	EnvFile      string
}

// PolicyFrom extracts the provisioning policy from the loaded config.
func PolicyFrom(cfg *config.Config) Policy {
	return Policy{
		WorkspaceDir: cfg.WorkspaceDir,
		AppDataBase:  cfg.AppDataBase,
		SharedGroup:  cfg.SharedGroup,
		ComposeFile:  cfg.ComposeFile,
		EnvFile:      cfg.EnvFile,
	}
}

// Layout is the set of paths provisioned for one stack.
type Layout struct {
	WorkspaceBase string // <home>/<workspace_dir>
	StacksDir     string // <base>/stacks
	StackDir      string // <base>/stacks/<name>
	ConfigDir     string // <stack>/config
	LogsDir       string // <stack>/logs
	ComposeFile   string // <stack>/<compose_file>
	EnvFile       string // <stack>/<env_file>
	DataRoot      string // <appdata_base>/<name>
	DataDir       string // <appdata_base>/<name>/data
}

// NewLayout computes the stack layout for the given home directory.
func NewLayout(home string, policy Policy, stack string) Layout {
	base := filepath.Join(home, policy.WorkspaceDir)
	stackDir := filepath.Join(base, "stacks", stack)
	dataRoot := filepath.Join(policy.AppDataBase, stack)
	return Layout{
		WorkspaceBase: base,
		StacksDir:     filepath.Join(base, "stacks"),
		StackDir:      stackDir,
		ConfigDir:     filepath.Join(stackDir, "config"),
		LogsDir:       filepath.Join(stackDir, "logs"),
		ComposeFile:   filepath.Join(stackDir, policy.ComposeFile),
		EnvFile:       filepath.Join(stackDir, policy.EnvFile),
		DataRoot:      dataRoot,
		DataDir:       filepath.Join(dataRoot, "data"),
	}
}

// FileReport records whether a placeholder file was newly created.
type FileReport struct {
	Path    string
	Created bool
}

// Summary describes everything a Provision run touched.
type Summary struct {
	RunID         string
	Stack         string
	User          string
	Home          string
	Group         string
	WorkspaceBase string
	DataRoot      string
	Dirs          []string
	Files         []FileReport
}

// CreatedCount returns the number of files newly created during the run.
func (s *Summary) CreatedCount() int {
	count := 0
	for _, f := range s.Files {
		if f.Created {
			count++
		}
	}
	return count
}
