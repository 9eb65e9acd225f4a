// Package identity resolves the acting user and the shared group for
// provisioning operations.
//
// The acting user is the invoking user, not root: when the tool runs under
// sudo, the identity of the user who invoked sudo is used so that workspace
// trees end up owned by the operator rather than by root.
package identity

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"

	"github.com/jaspreet-dot-casa/stackprov/pkg/sysexec"
)

// ErrHomeUnresolved indicates the acting user's home directory could not
// be determined.
var ErrHomeUnresolved = errors.New("home directory could not be resolved")

// Identity is the resolved acting user.
type Identity struct {
	Username string
	Home     string
	UID      int
	GID      int
}

// Group is a resolved system group.
type Group struct {
	Name string
	GID  int
}

// Directory looks up users and groups. The real implementation is backed
// by os/user; tests substitute fakes.
type Directory interface {
	Current() (*Identity, error)
	LookupUser(name string) (*Identity, error)
	LookupGroup(name string) (*Group, error)
}

// OSDirectory is the Directory backed by the host's user database.
type OSDirectory struct{}

// Current returns the identity of the current process user.
func (d *OSDirectory) Current() (*Identity, error) {
	u, err := user.Current()
	if err != nil {
		return nil, err
	}
	return identityFromUser(u)
}

// LookupUser looks up a user by name.
func (d *OSDirectory) LookupUser(name string) (*Identity, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return nil, err
	}
	return identityFromUser(u)
}

// LookupGroup looks up a group by name.
func (d *OSDirectory) LookupGroup(name string) (*Group, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return nil, err
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return nil, fmt.Errorf("invalid gid %q for group %s: %w", g.Gid, name, err)
	}
	return &Group{Name: g.Name, GID: gid}, nil
}

func identityFromUser(u *user.User) (*Identity, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("invalid uid %q for user %s: %w", u.Uid, u.Username, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("invalid gid %q for user %s: %w", u.Gid, u.Username, err)
	}
	return &Identity{
		Username: u.Username,
		Home:     u.HomeDir,
		UID:      uid,
		GID:      gid,
	}, nil
}

// Resolver resolves the acting identity, honoring sudo overrides.
type Resolver struct {
	dir Directory
	env sysexec.EnvGetter
}

// NewResolver creates a Resolver backed by the real user database and
// environment.
func NewResolver() *Resolver {
	return &Resolver{
		dir: &OSDirectory{},
		env: &sysexec.RealEnvGetter{},
	}
}

// NewResolverWith creates a Resolver with custom dependencies (for testing).
func NewResolverWith(dir Directory, env sysexec.EnvGetter) *Resolver {
	return &Resolver{dir: dir, env: env}
}

// Resolve returns the acting identity. Under sudo, SUDO_USER identifies
// the invoking user and takes precedence over the (root) process user.
func (r *Resolver) Resolve() (*Identity, error) {
	if sudoUser := r.env.Getenv("SUDO_USER"); sudoUser != "" && sudoUser != "root" {
		id, err := r.dir.LookupUser(sudoUser)
		if err != nil {
			return nil, fmt.Errorf("failed to look up sudo user %s: %w", sudoUser, err)
		}
		return checkHome(id)
	}

	id, err := r.dir.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current user: %w", err)
	}
	return checkHome(id)
}

func checkHome(id *Identity) (*Identity, error) {
	if id.Home == "" {
		return nil, fmt.Errorf("user %s: %w", id.Username, ErrHomeUnresolved)
	}
	return id, nil
}
