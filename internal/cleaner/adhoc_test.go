package cleaner_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
)

func TestNewShredCleaner(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "one.txt")
	folder := filepath.Join(dir, "folder")
	writeFile(t, file, "secret")
	writeFile(t, filepath.Join(folder, "two.txt"), "secret")

	c := cleaner.NewShredCleaner([]string{file, folder})
	assert.True(t, c.IsUsable())
	assert.Equal(t, []string{
		"Shred " + file,
		"Shred " + filepath.Join(folder, "two.txt"),
		"Shred " + folder,
	}, collect(t, c, "files"))

	cmds, err := c.Commands("files")
	require.NoError(t, err)
	for cmd, err := range cmds {
		require.NoError(t, err)
		for _, err := range cmd.Execute(true) {
			require.NoError(t, err)
		}
	}
	assert.NoFileExists(t, file)
	assert.NoDirExists(t, folder)
}

func TestNewWipeCleaner(t *testing.T) {
	c := cleaner.NewWipeCleaner("/mnt/data")
	cmds, err := c.Commands("free_disk_space")
	require.NoError(t, err)
	var got []command.Command
	for cmd, err := range cmds {
		require.NoError(t, err)
		got = append(got, cmd)
	}
	require.Len(t, got, 1)
	assert.Equal(t, command.KindFunction, got[0].Kind())
	assert.Equal(t, "Overwrite free disk space /mnt/data", got[0].String())

	for res, err := range got[0].Execute(false) {
		require.NoError(t, err)
		assert.Equal(t, 1, res.Special)
	}
}
