package provision

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jaspreet-dot-casa/stackprov/pkg/fsops"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
)

// The shared data tree is owned by root so only group membership, not
// user ownership, grants access to it.
const rootUID = 0

// Provisioner creates and repairs the workspace and data trees for a stack.
type Provisioner struct {
	policy   Policy
	resolver *identity.Resolver
	dir      identity.Directory
	fs       fsops.Ops
	logger   *log.Logger
}

// New creates a Provisioner.
func New(policy Policy, resolver *identity.Resolver, dir identity.Directory, fs fsops.Ops, logger *log.Logger) *Provisioner {
	return &Provisioner{
		policy:   policy,
		resolver: resolver,
		dir:      dir,
		fs:       fs,
		logger:   logger,
	}
}

// Provision runs the full pipeline for one stack. Every step is idempotent
// and any failure aborts the remaining steps immediately; nothing already
// applied is rolled back, and re-running after a fix is always safe.
func (p *Provisioner) Provision(stackName string) (*Summary, error) {
	name, err := ValidateName(stackName)
	if err != nil {
		return nil, err
	}

	id, err := p.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	group, err := p.dir.LookupGroup(p.policy.SharedGroup)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrGroupMissing, p.policy.SharedGroup)
	}

	layout := NewLayout(id.Home, p.policy, name)
	summary := &Summary{
		RunID:         uuid.NewString(),
		Stack:         name,
		User:          id.Username,
		Home:          id.Home,
		Group:         group.Name,
		WorkspaceBase: layout.WorkspaceBase,
		DataRoot:      layout.DataRoot,
	}

	p.logger.Debug("provisioning stack", "stack", name, "user", id.Username, "run", summary.RunID)

	// Workspace tree: directories and placeholder files first, then
	// ownership, then mode. Ownership runs before mode so no window exists
	// where a wrong owner holds broad permissions.
	for _, dir := range []string{layout.StacksDir, layout.ConfigDir, layout.LogsDir} {
		if err := p.fs.EnsureDir(dir); err != nil {
			return nil, err
		}
		summary.Dirs = append(summary.Dirs, dir)
	}

	for _, file := range []string{layout.ComposeFile, layout.EnvFile} {
		created, err := p.fs.EnsureEmptyFile(file)
		if err != nil {
			return nil, err
		}
		summary.Files = append(summary.Files, FileReport{Path: file, Created: created})
	}

	// The whole workspace base is re-homogenized on every run, not just
	// the new stack's subtree, so sibling stacks are repaired too.
	if err := p.fs.ApplyOwnership(layout.WorkspaceBase, id.UID, group.GID, true); err != nil {
		return nil, err
	}
	if err := p.fs.ApplyMode(layout.WorkspaceBase, fsops.WorkspaceMode, true); err != nil {
		return nil, err
	}

	// Shared data tree: root-owned, setgid so children inherit the group.
	if err := p.fs.EnsureDir(layout.DataDir); err != nil {
		return nil, err
	}
	summary.Dirs = append(summary.Dirs, layout.DataDir)

	if err := p.fs.ApplyOwnership(layout.DataRoot, rootUID, group.GID, true); err != nil {
		return nil, err
	}
	if err := p.fs.ApplyMode(layout.DataRoot, fsops.DataMode, true); err != nil {
		return nil, err
	}

	p.logger.Debug("stack provisioned", "stack", name, "files_created", summary.CreatedCount())
	return summary, nil
}
