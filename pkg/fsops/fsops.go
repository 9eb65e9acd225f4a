// Package fsops provides the idempotent filesystem primitives used when
// provisioning stack trees: create-if-absent directories and files, and
// recursive ownership/mode application.
package fsops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Directory and file modes applied by the provisioning policy.
const (
	// DirModeDefault is used when creating directories; the policy mode is
	// applied afterwards, so umask effects on fresh directories don't matter.
	DirModeDefault os.FileMode = 0o755

	// WorkspaceMode is applied to the per-user workspace tree. drwxrwxr-x
	WorkspaceMode os.FileMode = 0o775

	// DataMode is applied to the shared data tree. The setgid bit makes
	// children inherit the shared group. drwxrwsr-x
	DataMode os.FileMode = 0o775 | os.ModeSetgid

	// PlaceholderMode is used for newly created placeholder files. -rw-rw-r--
	PlaceholderMode os.FileMode = 0o664
)

// Ops is the filesystem operation set the Provisioner depends on. Tests
// substitute a recording fake; Real performs the operations on the host.
type Ops interface {
	// EnsureDir creates path and any missing ancestors. Succeeds if the
	// directory already exists.
	EnsureDir(path string) error

	// EnsureEmptyFile creates an empty file only if absent and reports
	// whether it was created. Existing content is never touched.
	EnsureEmptyFile(path string) (created bool, err error)

	// ApplyOwnership sets owner:group on path, and on every descendant
	// when recursive is true.
	ApplyOwnership(path string, uid, gid int, recursive bool) error

	// ApplyMode sets permission bits on path, and on every descendant
	// when recursive is true.
	ApplyMode(path string, mode os.FileMode, recursive bool) error
}

// Real is the Ops implementation backed by the host filesystem. The chown
// and chmod functions are injectable so ownership logic can be tested
// without elevated privileges.
type Real struct {
	chown func(path string, uid, gid int) error
	chmod func(path string, mode os.FileMode) error
}

// NewReal creates a Real with the standard os chown/chmod.
func NewReal() *Real {
	return &Real{chown: os.Chown, chmod: os.Chmod}
}

// NewRealWith creates a Real with custom chown/chmod functions (for testing).
func NewRealWith(chown func(string, int, int) error, chmod func(string, os.FileMode) error) *Real {
	return &Real{chown: chown, chmod: chmod}
}

// EnsureDir creates the directory and all missing ancestors.
func (r *Real) EnsureDir(path string) error {
	if err := os.MkdirAll(path, DirModeDefault); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// EnsureEmptyFile creates an empty file only if absent.
func (r *Real) EnsureEmptyFile(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, PlaceholderMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("failed to close file %s: %w", path, err)
	}
	return true, nil
}

// ApplyOwnership sets owner:group, recursively when requested.
func (r *Real) ApplyOwnership(path string, uid, gid int, recursive bool) error {
	if !recursive {
		if err := r.chown(path, uid, gid); err != nil {
			return fmt.Errorf("failed to change ownership of %s: %w", path, err)
		}
		return nil
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := r.chown(p, uid, gid); err != nil {
			return fmt.Errorf("failed to change ownership of %s: %w", p, err)
		}
		return nil
	})
}

// ApplyMode sets permission bits, recursively when requested.
func (r *Real) ApplyMode(path string, mode os.FileMode, recursive bool) error {
	if !recursive {
		if err := r.chmod(path, mode); err != nil {
			return fmt.Errorf("failed to change mode of %s: %w", path, err)
		}
		return nil
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := r.chmod(p, mode); err != nil {
			return fmt.Errorf("failed to change mode of %s: %w", p, err)
		}
		return nil
	})
}
