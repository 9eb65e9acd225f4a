package fsops

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "a", "b", "c")

	err := NewReal().EnsureDir(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_ExistingIsNoop(t *testing.T) {
	tmp := t.TempDir()
	real := NewReal()

	require.NoError(t, real.EnsureDir(filepath.Join(tmp, "dir")))
	require.NoError(t, real.EnsureDir(filepath.Join(tmp, "dir")))
}

func TestEnsureEmptyFile_Creates(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "docker-compose.yml")

	created, err := NewReal().EnsureEmptyFile(path)
	require.NoError(t, err)
	assert.True(t, created)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestEnsureEmptyFile_NeverTruncatesExisting(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, ".env")
	require.NoError(t, os.WriteFile(path, []byte("KEY=value\n"), 0o664))

	created, err := NewReal().EnsureEmptyFile(path)
	require.NoError(t, err)
	assert.False(t, created)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "KEY=value\n", string(content))
}

func TestEnsureEmptyFile_MissingParentFails(t *testing.T) {
	tmp := t.TempDir()

	_, err := NewReal().EnsureEmptyFile(filepath.Join(tmp, "missing", "file"))
	assert.Error(t, err)
}

func TestApplyMode_Single(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	tmp := t.TempDir()
	path := filepath.Join(tmp, "dir")
	require.NoError(t, os.Mkdir(path, 0o700))

	err := NewReal().ApplyMode(path, WorkspaceMode, false)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o775), info.Mode().Perm())
}

func TestApplyMode_Recursive(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "base", "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "base", "sub", "file"), nil, 0o600))

	err := NewReal().ApplyMode(filepath.Join(tmp, "base"), WorkspaceMode, true)
	require.NoError(t, err)

	for _, p := range []string{
		filepath.Join(tmp, "base"),
		filepath.Join(tmp, "base", "sub"),
		filepath.Join(tmp, "base", "sub", "file"),
	} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o775), info.Mode().Perm(), p)
	}
}

func TestApplyOwnership_RecursiveVisitsEveryPath(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "base", "stacks", "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "base", "stacks", "app", ".env"), nil, 0o664))

	var chowned []string
	real := NewRealWith(
		func(path string, uid, gid int) error {
			assert.Equal(t, 1000, uid)
			assert.Equal(t, 999, gid)
			chowned = append(chowned, path)
			return nil
		},
		os.Chmod,
	)

	err := real.ApplyOwnership(filepath.Join(tmp, "base"), 1000, 999, true)
	require.NoError(t, err)

	assert.Len(t, chowned, 4)
	assert.Equal(t, filepath.Join(tmp, "base"), chowned[0], "parent must be chowned before children")
}

func TestApplyOwnership_NonRecursive(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "base", "sub"), 0o755))

	var chowned []string
	real := NewRealWith(
		func(path string, uid, gid int) error {
			chowned = append(chowned, path)
			return nil
		},
		os.Chmod,
	)

	err := real.ApplyOwnership(filepath.Join(tmp, "base"), 0, 999, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(tmp, "base")}, chowned)
}

func TestApplyOwnership_DeniedSurfacesError(t *testing.T) {
	tmp := t.TempDir()
	real := NewRealWith(
		func(path string, uid, gid int) error {
			return os.ErrPermission
		},
		os.Chmod,
	)

	err := real.ApplyOwnership(tmp, 0, 0, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestDataModeHasSetgid(t *testing.T) {
	assert.NotZero(t, DataMode&os.ModeSetgid)
	assert.Equal(t, os.FileMode(0o775), DataMode.Perm())
}
