package envutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWindowsEnv(t *testing.T) {
	t.Setenv("CLEANML_TEST_DIR", "/data")

	assert.Equal(t, "/data/cache", envutil.ExpandWindowsEnv("%CLEANML_TEST_DIR%/cache"))
	assert.Equal(t, "/data/cache", envutil.ExpandWindowsEnv("$CLEANML_TEST_DIR/cache"))
	assert.Equal(t, "/data/cache", envutil.ExpandWindowsEnv("${CLEANML_TEST_DIR}/cache"))
	assert.Equal(t, "%CLEANML_UNSET_VAR%/x", envutil.ExpandWindowsEnv("%CLEANML_UNSET_VAR%/x"))
	assert.Equal(t, "${CLEANML_UNSET_VAR}/x", envutil.ExpandWindowsEnv("$CLEANML_UNSET_VAR/x"))
	assert.Equal(t, "plain/path", envutil.ExpandWindowsEnv("plain/path"))
}

func TestExpandUser(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, envutil.ExpandUser("~"))
	assert.Equal(t, home+"/.cache", envutil.ExpandUser("~/.cache"))
	assert.Equal(t, "/etc/~x", envutil.ExpandUser("/etc/~x"))
}

func TestExpandGlobJoin(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"foo1", "foo2", "bar"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo1", "x.log"), nil, 0o644))

	got := envutil.ExpandGlobJoin(filepath.Join(dir, "foo*"), "")
	assert.Equal(t, []string{filepath.Join(dir, "foo1"), filepath.Join(dir, "foo2")}, got)

	got = envutil.ExpandGlobJoin(filepath.Join(dir, "foo*"), "*.log")
	assert.Equal(t, []string{filepath.Join(dir, "foo1", "x.log")}, got)

	assert.Empty(t, envutil.ExpandGlobJoin(filepath.Join(dir, "missing*"), ""))
	assert.True(t, envutil.HasGlob("a/*.x"))
	assert.False(t, envutil.HasGlob("a/b"))
}
