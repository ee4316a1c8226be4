package cleaner_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
	"github.com/lakshaymaurya-felt/cleanml/pkg/whitelist"
)

func optionIDs(c *cleaner.Cleaner) []string {
	var ids []string
	for _, o := range c.Options() {
		ids = append(ids, o.ID)
	}
	return ids
}

func newSystem(t *testing.T, cfg cleaner.SystemConfig) (*cleaner.Cleaner, string) {
	t.Helper()
	root := t.TempDir()
	if cfg.Matcher.Platform == "" {
		cfg.Matcher = platform.Matcher{Platform: "linux"}
	}
	cfg.Home = filepath.Join(root, "home")
	if cfg.TempDirs == nil {
		cfg.TempDirs = []string{filepath.Join(root, "tmp")}
	}
	cfg.LogDir = filepath.Join(root, "log")
	if cfg.Whitelist == nil {
		cfg.Whitelist = whitelist.New()
	}
	if cfg.WinDir == "" {
		cfg.WinDir = filepath.Join(root, "windows")
	}
	if cfg.ClearClipboard == nil {
		cfg.ClearClipboard = func() error { return nil }
	}
	return cleaner.System(cfg), root
}

func TestSystemOptionsPerPlatform(t *testing.T) {
	linux, _ := newSystem(t, cleaner.SystemConfig{})
	assert.Equal(t, []string{
		"cache", "clipboard", "custom", "desktop_entry", "free_disk_space",
		"recent_documents", "rotated_logs", "tmp", "trash",
	}, optionIDs(linux))

	windows, _ := newSystem(t, cleaner.SystemConfig{Matcher: platform.Matcher{Platform: "win32"}})
	assert.Equal(t, []string{
		"clipboard", "custom", "free_disk_space", "logs", "memory_dump",
		"muicache", "prefetch", "recycle_bin", "tmp", "updates",
	}, optionIDs(windows))

	w, ok := linux.Warning("free_disk_space")
	assert.True(t, ok)
	assert.NotEmpty(t, w)
	assert.Equal(t, "system", linux.ID)
	assert.True(t, linux.IsUsable())
}

func TestSystemCacheRespectsWhitelist(t *testing.T) {
	root := t.TempDir()
	home := filepath.Join(root, "home")
	writeFile(t, filepath.Join(home, ".cache", "thumbnails", "a.png"), "x")
	writeFile(t, filepath.Join(home, ".cache", "mozilla", "cache2"), "x")

	c := cleaner.System(cleaner.SystemConfig{
		Matcher:   platform.Matcher{Platform: "linux"},
		Home:      home,
		TempDirs:  []string{},
		LogDir:    filepath.Join(root, "log"),
		Whitelist: whitelist.New("^" + filepath.Join(home, ".cache", "mozilla")),
	})

	assert.Equal(t, []string{
		"Delete " + filepath.Join(home, ".cache", "thumbnails", "a.png"),
		"Delete " + filepath.Join(home, ".cache", "thumbnails"),
	}, collect(t, c, "cache"))
}

func TestSystemTmp(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ownership checks are POSIX only")
	}
	root := t.TempDir()
	tmp := filepath.Join(root, "tmp")
	writeFile(t, filepath.Join(tmp, "session.tmp"), "x")
	writeFile(t, filepath.Join(tmp, "keep.lock"), "x")
	require.NoError(t, os.Symlink(filepath.Join(tmp, "session.tmp"), filepath.Join(tmp, "link")))

	c := cleaner.System(cleaner.SystemConfig{
		Matcher:   platform.Matcher{Platform: "linux"},
		Home:      filepath.Join(root, "home"),
		TempDirs:  []string{tmp},
		LogDir:    filepath.Join(root, "log"),
		Whitelist: whitelist.New(`.*\.lock$`),
	})
	assert.Equal(t, []string{"Delete " + filepath.Join(tmp, "session.tmp")}, collect(t, c, "tmp"))
}

func TestSystemTrashAndRecent(t *testing.T) {
	c, root := newSystem(t, cleaner.SystemConfig{})
	home := filepath.Join(root, "home")
	writeFile(t, filepath.Join(home, ".local", "share", "Trash", "files", "old.txt"), "x")
	writeFile(t, filepath.Join(home, ".local", "share", "Trash", "info", "old.txt.trashinfo"), "x")
	writeFile(t, filepath.Join(home, ".local", "share", "recently-used.xbel"), "<xbel/>")
	writeFile(t, filepath.Join(home, ".recently-used"), "x")

	assert.Equal(t, []string{
		"Delete " + filepath.Join(home, ".local", "share", "Trash", "files", "old.txt"),
		"Delete " + filepath.Join(home, ".local", "share", "Trash", "info", "old.txt.trashinfo"),
	}, collect(t, c, "trash"))

	assert.Equal(t, []string{
		"Delete " + filepath.Join(home, ".recently-used"),
		"Shred " + filepath.Join(home, ".local", "share", "recently-used.xbel"),
	}, collect(t, c, "recent_documents"))
}

func TestSystemRotatedLogs(t *testing.T) {
	c, root := newSystem(t, cleaner.SystemConfig{})
	logDir := filepath.Join(root, "log")
	for _, name := range []string{"syslog", "syslog.1", "syslog.2.gz", "auth.log.old", "dpkg.log-20240101", "apt/history.log.3.gz"} {
		writeFile(t, filepath.Join(logDir, filepath.FromSlash(name)), "x")
	}

	assert.ElementsMatch(t, []string{
		"Delete " + filepath.Join(logDir, "syslog.1"),
		"Delete " + filepath.Join(logDir, "syslog.2.gz"),
		"Delete " + filepath.Join(logDir, "auth.log.old"),
		"Delete " + filepath.Join(logDir, "dpkg.log-20240101"),
		"Delete " + filepath.Join(logDir, "apt", "history.log.3.gz"),
	}, collect(t, c, "rotated_logs"))
}

func TestSystemCustom(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "secret.txt")
	folder := filepath.Join(root, "stash")
	writeFile(t, file, "x")
	writeFile(t, filepath.Join(folder, "a"), "x")

	c, _ := newSystem(t, cleaner.SystemConfig{CustomPaths: []cleaner.CustomPath{
		{Type: "file", Path: file},
		{Type: "folder", Path: folder},
		{Type: "file", Path: filepath.Join(root, "gone.txt")},
	}})

	cmds, err := c.Commands("custom")
	require.NoError(t, err)
	var errs int
	var deleted []string
	for cmd, err := range cmds {
		require.NoError(t, err)
		for res, err := range cmd.Execute(true) {
			if err != nil {
				errs++
				continue
			}
			deleted = append(deleted, res.Path)
		}
	}
	assert.Equal(t, []string{file, filepath.Join(folder, "a"), folder}, deleted)
	assert.Equal(t, 1, errs, "a missing explicit target is reported")
	assert.NoFileExists(t, file)
	assert.NoDirExists(t, folder)
}

func TestSystemCustomInvalidType(t *testing.T) {
	c, _ := newSystem(t, cleaner.SystemConfig{CustomPaths: []cleaner.CustomPath{{Type: "socket", Path: "/x"}}})
	cmds, err := c.Commands("custom")
	require.NoError(t, err)
	for _, err := range cmds {
		assert.Error(t, err)
	}
}

func TestSystemFreeDiskSpace(t *testing.T) {
	c, _ := newSystem(t, cleaner.SystemConfig{ShredDrives: []string{"/mnt/a", "/mnt/b"}})
	assert.Equal(t, []string{
		"Overwrite free disk space /mnt/a",
		"Overwrite free disk space /mnt/b",
	}, collect(t, c, "free_disk_space"))
}

func TestSystemMUICacheCommands(t *testing.T) {
	c, _ := newSystem(t, cleaner.SystemConfig{Matcher: platform.Matcher{Platform: "win32"}})
	cmds, err := c.Commands("muicache")
	require.NoError(t, err)
	var kinds []command.Kind
	for cmd, err := range cmds {
		require.NoError(t, err)
		kinds = append(kinds, cmd.Kind())
	}
	assert.Equal(t, []command.Kind{command.KindRegistry, command.KindRegistry}, kinds)
}

func TestSystemUpdates(t *testing.T) {
	winDir := filepath.Join(t.TempDir(), "Windows")
	kb := filepath.Join(winDir, "$NtUninstallKB123456$")
	require.NoError(t, os.MkdirAll(filepath.Join(kb, "spuninst"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(kb, "spuninst", "spuninst.exe"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(winDir, "$NtUninstallKB999$"), []byte("not a dir"), 0o644))

	c, _ := newSystem(t, cleaner.SystemConfig{Matcher: platform.Matcher{Platform: "win32"}, WinDir: winDir})
	assert.Equal(t, []string{
		`Delete registry key HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\KB123456`,
		"Delete " + filepath.Join(kb, "spuninst", "spuninst.exe"),
		"Delete " + filepath.Join(kb, "spuninst"),
		"Delete " + kb,
	}, collect(t, c, "updates"))
}

func TestSystemClipboard(t *testing.T) {
	cleared := 0
	c, _ := newSystem(t, cleaner.SystemConfig{ClearClipboard: func() error {
		cleared++
		return nil
	}})
	cmds, err := c.Commands("clipboard")
	require.NoError(t, err)
	for cmd, err := range cmds {
		require.NoError(t, err)
		assert.Equal(t, command.KindFunction, cmd.Kind())
		for res, err := range cmd.Execute(false) {
			require.NoError(t, err)
			assert.Equal(t, 1, res.Special)
		}
		assert.Zero(t, cleared)
		for _, err := range cmd.Execute(true) {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, cleared)
}
