// Package installer installs the docker engine from the vendor apt
// repository, enables its service, adds the acting user to the shared
// group, and provisions the install-variant directory trees.
//
// The hard work (dependency resolution, binary installation) is delegated
// to apt and systemd; this package only sequences those tools and
// interprets their success or failure.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
	"github.com/jaspreet-dot-casa/stackprov/pkg/fsops"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
	"github.com/jaspreet-dot-casa/stackprov/pkg/sysexec"
)

var (
	// ErrRepository indicates the vendor apt repository could not be
	// registered.
	ErrRepository = errors.New("repository registration failed")

	// ErrPackageInstall indicates apt reported failure installing the
	// engine packages.
	ErrPackageInstall = errors.New("package installation failed")

	// ErrService indicates the service manager rejected enabling or
	// starting the engine service.
	ErrService = errors.New("service activation failed")
)

// Outcome records a best-effort step: the attempt always happens, and a
// failure is kept for reporting instead of aborting the pipeline.
type Outcome struct {
	Package   string
	Attempted bool
	Succeeded bool
	Err       error
}

// Report describes a completed install run.
type Report struct {
	RunID          string
	User           string
	Group          string
	Removed        []Outcome
	RepoRegistered bool // false when the repository was already present
	Packages       []string
	ServiceEnabled bool
	AddedToGroup   bool // false when the user was already a member
	Dirs           []string
}

// Installer sequences the docker engine installation.
type Installer struct {
	cfg      *config.Config
	exec     sysexec.CommandExecutor
	fs       fsops.Ops
	resolver *identity.Resolver
	dir      identity.Directory
	logger   *log.Logger
	out      io.Writer
}

// New creates an Installer. out receives the streamed package-manager
// output during installation.
func New(cfg *config.Config, exec sysexec.CommandExecutor, fs fsops.Ops, resolver *identity.Resolver, dir identity.Directory, logger *log.Logger, out io.Writer) *Installer {
	return &Installer{
		cfg:      cfg,
		exec:     exec,
		fs:       fs,
		resolver: resolver,
		dir:      dir,
		logger:   logger,
		out:      out,
	}
}

// Run executes the full install pipeline. Conflicting-package removal is
// best-effort; every other step is fatal on failure.
func (i *Installer) Run(ctx context.Context) (*Report, error) {
	id, err := i.resolver.Resolve()
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    uuid.NewString(),
		User:     id.Username,
		Group:    i.cfg.SharedGroup,
		Packages: i.cfg.Docker.Packages,
	}

	report.Removed = i.RemoveConflicting(ctx)

	registered, err := i.EnsureRepository(ctx)
	if err != nil {
		return nil, err
	}
	report.RepoRegistered = registered

	if err := i.InstallPackages(ctx); err != nil {
		return nil, err
	}

	if err := i.EnableService(ctx); err != nil {
		return nil, err
	}
	report.ServiceEnabled = true

	// The engine package creates the shared group on install, so it must
	// exist by now; a miss here means the install itself is broken.
	group, err := i.dir.LookupGroup(i.cfg.SharedGroup)
	if err != nil {
		return nil, fmt.Errorf("group %s missing after install: %w", i.cfg.SharedGroup, err)
	}

	added, err := i.AddUserToGroup(ctx, id.Username)
	if err != nil {
		return nil, err
	}
	report.AddedToGroup = added

	dirs, err := i.provisionDirectories(id, group)
	if err != nil {
		return nil, err
	}
	report.Dirs = dirs

	return report, nil
}

// RemoveConflicting attempts removal of every known-conflicting package.
// Failures are recorded and tolerated: the packages may simply not be
// installed.
func (i *Installer) RemoveConflicting(ctx context.Context) []Outcome {
	outcomes := make([]Outcome, 0, len(i.cfg.Docker.ConflictingPackages))
	for _, pkg := range i.cfg.Docker.ConflictingPackages {
		outcome := Outcome{Package: pkg, Attempted: true}
		if _, err := i.exec.RunContext(ctx, "apt-get", "remove", "-y", pkg); err != nil {
			outcome.Err = err
			i.logger.Debug("conflicting package removal failed (ignored)", "package", pkg, "err", err)
		} else {
			outcome.Succeeded = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// EnsureRepository registers the vendor apt repository if it is not
// already registered, and refreshes the package index. Returns whether a
// new registration happened.
func (i *Installer) EnsureRepository(ctx context.Context) (bool, error) {
	docker := i.cfg.Docker

	if i.exec.FileExists(docker.SourcesListPath) {
		i.logger.Debug("apt repository already registered", "sources", docker.SourcesListPath)
		return false, nil
	}

	if err := i.fs.EnsureDir(filepath.Dir(docker.KeyringPath)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRepository, err)
	}

	fetchKey := fmt.Sprintf("curl -fsSL %s -o %s && chmod a+r %s",
		docker.GPGKeyURL, docker.KeyringPath, docker.KeyringPath)
	if out, err := i.exec.RunContext(ctx, "sh", "-c", fetchKey); err != nil {
		return false, fmt.Errorf("%w: fetching signing key: %s", ErrRepository, firstLine(out, err))
	}

	arch, err := i.exec.RunContext(ctx, "dpkg", "--print-architecture")
	if err != nil {
		return false, fmt.Errorf("%w: detecting architecture: %v", ErrRepository, err)
	}

	codename, err := i.exec.RunContext(ctx, "sh", "-c", ". /etc/os-release && echo \"${UBUNTU_CODENAME:-$VERSION_CODENAME}\"")
	if err != nil {
		return false, fmt.Errorf("%w: detecting release codename: %v", ErrRepository, err)
	}

	entry := fmt.Sprintf("deb [arch=%s signed-by=%s] %s %s stable",
		strings.TrimSpace(arch), docker.KeyringPath, docker.RepoURL, strings.TrimSpace(codename))
	writeList := fmt.Sprintf("echo %q > %s", entry, docker.SourcesListPath)
	if out, err := i.exec.RunContext(ctx, "sh", "-c", writeList); err != nil {
		return false, fmt.Errorf("%w: writing sources list: %s", ErrRepository, firstLine(out, err))
	}

	if out, err := i.exec.RunContext(ctx, "apt-get", "update"); err != nil {
		return false, fmt.Errorf("%w: apt-get update: %s", ErrRepository, firstLine(out, err))
	}

	i.logger.Info("registered apt repository", "url", docker.RepoURL)
	return true, nil
}

// InstallPackages installs the engine packages. Fatal on failure; no
// partial-install recovery is attempted.
func (i *Installer) InstallPackages(ctx context.Context) error {
	args := append([]string{"install", "-y"}, i.cfg.Docker.Packages...)
	if err := i.exec.RunStreaming(ctx, i.out, "apt-get", args...); err != nil {
		return fmt.Errorf("%w: %v", ErrPackageInstall, err)
	}
	return nil
}

// EnableService enables and starts the engine service.
func (i *Installer) EnableService(ctx context.Context) error {
	if out, err := i.exec.RunContext(ctx, "systemctl", "enable", "--now", i.cfg.Docker.Service); err != nil {
		return fmt.Errorf("%w: %s", ErrService, firstLine(out, err))
	}
	return nil
}

// AddUserToGroup adds the user to the shared group. Membership is checked
// first so re-adding an existing member is a reported no-op. Returns
// whether the user was newly added.
func (i *Installer) AddUserToGroup(ctx context.Context, username string) (bool, error) {
	out, err := i.exec.RunContext(ctx, "id", "-nG", username)
	if err != nil {
		return false, fmt.Errorf("failed to read group membership for %s: %w", username, err)
	}
	for _, g := range strings.Fields(out) {
		if g == i.cfg.SharedGroup {
			i.logger.Debug("user already in group", "user", username, "group", i.cfg.SharedGroup)
			return false, nil
		}
	}

	if out, err := i.exec.RunContext(ctx, "usermod", "-aG", i.cfg.SharedGroup, username); err != nil {
		return false, fmt.Errorf("failed to add %s to group %s: %s", username, i.cfg.SharedGroup, firstLine(out, err))
	}
	return true, nil
}

// provisionDirectories creates the install-variant trees: the per-user
// docker workspace and the shared docker data root.
func (i *Installer) provisionDirectories(id *identity.Identity, group *identity.Group) ([]string, error) {
	workspace := filepath.Join(id.Home, i.cfg.Docker.WorkspaceDir)
	stacks := filepath.Join(workspace, "stacks")
	dataRoot := filepath.Join(i.cfg.AppDataBase, i.cfg.Docker.WorkspaceDir)

	if err := i.fs.EnsureDir(stacks); err != nil {
		return nil, err
	}
	if err := i.fs.ApplyOwnership(workspace, id.UID, group.GID, true); err != nil {
		return nil, err
	}
	if err := i.fs.ApplyMode(workspace, fsops.WorkspaceMode, true); err != nil {
		return nil, err
	}

	if err := i.fs.EnsureDir(dataRoot); err != nil {
		return nil, err
	}
	if err := i.fs.ApplyOwnership(dataRoot, 0, group.GID, true); err != nil {
		return nil, err
	}
	if err := i.fs.ApplyMode(dataRoot, fsops.DataMode, true); err != nil {
		return nil, err
	}

	return []string{stacks, dataRoot}, nil
}

// firstLine condenses tool output for error messages, falling back to the
// raw error when the tool printed nothing.
func firstLine(out string, err error) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return err.Error()
	}
	if idx := strings.IndexByte(out, '\n'); idx >= 0 {
		out = out[:idx]
	}
	return out
}
