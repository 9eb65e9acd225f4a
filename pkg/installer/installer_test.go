package installer

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/stackprov/pkg/config"
	"github.com/jaspreet-dot-casa/stackprov/pkg/identity"
)

// MockExecutor is a mock command executor for testing.
type MockExecutor struct {
	Commands       []string
	RunContextFunc func(ctx context.Context, name string, args ...string) (string, error)
	StreamingFunc  func(ctx context.Context, name string, args ...string) error
	FileExistsFunc func(path string) bool
}

func (m *MockExecutor) LookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func (m *MockExecutor) Run(name string, args ...string) (string, error) {
	return m.RunContext(context.Background(), name, args...)
}

func (m *MockExecutor) RunContext(ctx context.Context, name string, args ...string) (string, error) {
	m.Commands = append(m.Commands, name+" "+strings.Join(args, " "))
	if m.RunContextFunc != nil {
		return m.RunContextFunc(ctx, name, args...)
	}
	return "", nil
}

func (m *MockExecutor) CombinedOutput(name string, args ...string) ([]byte, error) {
	m.Commands = append(m.Commands, name+" "+strings.Join(args, " "))
	return nil, nil
}

func (m *MockExecutor) RunStreaming(ctx context.Context, _ io.Writer, name string, args ...string) error {
	m.Commands = append(m.Commands, name+" "+strings.Join(args, " "))
	if m.StreamingFunc != nil {
		return m.StreamingFunc(ctx, name, args...)
	}
	return nil
}

func (m *MockExecutor) FileExists(path string) bool {
	if m.FileExistsFunc != nil {
		return m.FileExistsFunc(path)
	}
	return false
}

// fakeOps is a no-op filesystem for install tests.
type fakeOps struct {
	dirs      []string
	ownership map[string][2]int
	modes     map[string]os.FileMode
}

func newFakeOps() *fakeOps {
	return &fakeOps{ownership: make(map[string][2]int), modes: make(map[string]os.FileMode)}
}

func (f *fakeOps) EnsureDir(path string) error {
	f.dirs = append(f.dirs, path)
	return nil
}

func (f *fakeOps) EnsureEmptyFile(path string) (bool, error) { return true, nil }

func (f *fakeOps) ApplyOwnership(path string, uid, gid int, recursive bool) error {
	f.ownership[path] = [2]int{uid, gid}
	return nil
}

func (f *fakeOps) ApplyMode(path string, mode os.FileMode, recursive bool) error {
	f.modes[path] = mode
	return nil
}

type fakeDirectory struct{ missingGroup bool }

func (f *fakeDirectory) Current() (*identity.Identity, error) {
	return &identity.Identity{Username: "alice", Home: "/home/alice", UID: 1000, GID: 1000}, nil
}

func (f *fakeDirectory) LookupUser(name string) (*identity.Identity, error) {
	return nil, errors.New("unknown user")
}

func (f *fakeDirectory) LookupGroup(name string) (*identity.Group, error) {
	if f.missingGroup {
		return nil, errors.New("group: unknown group " + name)
	}
	return &identity.Group{Name: name, GID: 999}, nil
}

type fakeEnv struct{}

func (fakeEnv) Getenv(string) string { return "" }

func newTestInstaller(exec *MockExecutor) (*Installer, *fakeOps) {
	dir := &fakeDirectory{}
	ops := newFakeOps()
	inst := New(
		config.Default(),
		exec,
		ops,
		identity.NewResolverWith(dir, fakeEnv{}),
		dir,
		log.New(io.Discard),
		io.Discard,
	)
	return inst, ops
}

func TestRemoveConflicting_ToleratesFailures(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			if len(args) >= 3 && args[2] == "podman-docker" {
				return "E: Unable to locate package", errors.New("exit status 100")
			}
			return "", nil
		},
	}
	inst, _ := newTestInstaller(exec)

	outcomes := inst.RemoveConflicting(context.Background())

	require.Len(t, outcomes, len(config.Default().Docker.ConflictingPackages))
	for _, o := range outcomes {
		assert.True(t, o.Attempted)
		if o.Package == "podman-docker" {
			assert.False(t, o.Succeeded)
			assert.Error(t, o.Err)
		} else {
			assert.True(t, o.Succeeded)
			assert.NoError(t, o.Err)
		}
	}
}

func TestEnsureRepository_AlreadyRegistered(t *testing.T) {
	exec := &MockExecutor{
		FileExistsFunc: func(path string) bool {
			return path == "/etc/apt/sources.list.d/docker.list"
		},
	}
	inst, _ := newTestInstaller(exec)

	registered, err := inst.EnsureRepository(context.Background())
	require.NoError(t, err)
	assert.False(t, registered)
	assert.Empty(t, exec.Commands, "no command may run when the repo is present")
}

func TestEnsureRepository_Registers(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			if name == "dpkg" {
				return "amd64\n", nil
			}
			if name == "sh" && strings.Contains(args[1], "os-release") {
				return "noble\n", nil
			}
			return "", nil
		},
	}
	inst, ops := newTestInstaller(exec)

	registered, err := inst.EnsureRepository(context.Background())
	require.NoError(t, err)
	assert.True(t, registered)

	assert.Contains(t, ops.dirs, "/etc/apt/keyrings")

	joined := strings.Join(exec.Commands, "\n")
	assert.Contains(t, joined, "curl -fsSL https://download.docker.com/linux/ubuntu/gpg")
	assert.Contains(t, joined, "deb [arch=amd64 signed-by=/etc/apt/keyrings/docker.asc] https://download.docker.com/linux/ubuntu noble stable")
	assert.Contains(t, joined, "apt-get update")
}

func TestEnsureRepository_KeyFetchFails(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			if name == "sh" && strings.Contains(args[1], "curl") {
				return "curl: (6) Could not resolve host", errors.New("exit status 6")
			}
			return "", nil
		},
	}
	inst, _ := newTestInstaller(exec)

	_, err := inst.EnsureRepository(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRepository)
	assert.Contains(t, err.Error(), "Could not resolve host")
}

func TestInstallPackages_Failure(t *testing.T) {
	exec := &MockExecutor{
		StreamingFunc: func(_ context.Context, name string, args ...string) error {
			return errors.New("exit status 100")
		},
	}
	inst, _ := newTestInstaller(exec)

	err := inst.InstallPackages(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPackageInstall)
}

func TestInstallPackages_PassesPackageList(t *testing.T) {
	exec := &MockExecutor{}
	inst, _ := newTestInstaller(exec)

	require.NoError(t, inst.InstallPackages(context.Background()))
	require.Len(t, exec.Commands, 1)
	assert.Equal(t, "apt-get install -y docker-ce docker-ce-cli containerd.io docker-buildx-plugin docker-compose-plugin", exec.Commands[0])
}

func TestEnableService_Failure(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			return "Failed to enable unit", errors.New("exit status 1")
		},
	}
	inst, _ := newTestInstaller(exec)

	err := inst.EnableService(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrService)
	assert.Contains(t, err.Error(), "Failed to enable unit")
}

func TestAddUserToGroup_AlreadyMember(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			if name == "id" {
				return "alice adm docker sudo\n", nil
			}
			t.Fatalf("unexpected command %s", name)
			return "", nil
		},
	}
	inst, _ := newTestInstaller(exec)

	added, err := inst.AddUserToGroup(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestAddUserToGroup_Adds(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			if name == "id" {
				return "alice adm sudo\n", nil
			}
			return "", nil
		},
	}
	inst, _ := newTestInstaller(exec)

	added, err := inst.AddUserToGroup(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Contains(t, exec.Commands, "usermod -aG docker alice")
}

func TestRun_FullPipeline(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			switch name {
			case "dpkg":
				return "amd64\n", nil
			case "id":
				return "alice adm sudo\n", nil
			case "sh":
				if strings.Contains(args[1], "os-release") {
					return "noble\n", nil
				}
			}
			return "", nil
		},
	}
	inst, ops := newTestInstaller(exec)

	report, err := inst.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "alice", report.User)
	assert.True(t, report.RepoRegistered)
	assert.True(t, report.ServiceEnabled)
	assert.True(t, report.AddedToGroup)
	assert.Len(t, report.Removed, 6)
	assert.Equal(t, []string{"/home/alice/docker/stacks", "/opt/appdata/docker"}, report.Dirs)

	assert.Equal(t, [2]int{1000, 999}, ops.ownership["/home/alice/docker"])
	assert.Equal(t, [2]int{0, 999}, ops.ownership["/opt/appdata/docker"])
}

func TestRun_RepositoryFailureIsFatal(t *testing.T) {
	exec := &MockExecutor{
		RunContextFunc: func(_ context.Context, name string, args ...string) (string, error) {
			if name == "sh" && strings.Contains(args[1], "curl") {
				return "", errors.New("network down")
			}
			return "", nil
		},
	}
	inst, _ := newTestInstaller(exec)

	_, err := inst.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRepository)

	for _, cmd := range exec.Commands {
		assert.NotContains(t, cmd, "apt-get install", "install must not run after a fatal step")
	}
}
