package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
	"github.com/lakshaymaurya-felt/cleanml/pkg/whitelist"
)

// Custom path types.
const (
	CustomFile   = "file"
	CustomFolder = "folder"
)

// CustomPath is a user-configured target of the System cleaner's custom
// option.
type CustomPath struct {
	Type string `koanf:"type"`
	Path string `koanf:"path"`
}

// SystemConfig parameterizes the System cleaner. Zero fields take the
// host's defaults.
type SystemConfig struct {
	Matcher     platform.Matcher
	CustomPaths []CustomPath
	ShredDrives []string
	Whitelist   *whitelist.Whitelist

	// Home, TempDirs and LogDir locate the POSIX sweeps.
	Home     string
	TempDirs []string
	LogDir   string

	// WinDir locates the Windows update uninstallers.
	WinDir string

	// ClearClipboard empties the desktop clipboard. Nil on hosts without
	// clipboard access, which drops the clipboard option.
	ClearClipboard func() error
}

func (cfg SystemConfig) withDefaults() SystemConfig {
	if cfg.Matcher.Platform == "" {
		cfg.Matcher = platform.Host()
	}
	if cfg.Whitelist == nil {
		cfg.Whitelist = whitelist.Default()
	}
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if cfg.TempDirs == nil {
		cfg.TempDirs = []string{"/tmp", "/var/tmp"}
	}
	if cfg.LogDir == "" {
		cfg.LogDir = "/var/log"
	}
	if cfg.WinDir == "" {
		cfg.WinDir = os.Getenv("windir")
		if cfg.WinDir == "" {
			cfg.WinDir = `C:\Windows`
		}
	}
	if cfg.ClearClipboard == nil && !clipboard.Unsupported {
		cfg.ClearClipboard = func() error { return clipboard.WriteAll("") }
	}
	return cfg
}

// System returns the built-in cleaner for the system in general.
func System(cfg SystemConfig) *Cleaner {
	cfg = cfg.withDefaults()
	s := &system{cfg: cfg}

	c := New("system", "System", "The system in general")
	c.Whitelist = cfg.Whitelist
	s.c = c

	if cfg.Matcher.IsPOSIX() {
		c.AddOption("desktop_entry", "Broken desktop files", "Delete broken application menu entries and file associations")
		c.AddAction("desktop_entry", action.Func(s.desktopEntries))
		c.AddOption("cache", "Cache", "Delete the cache")
		c.AddAction("cache", action.Func(s.cache))
		c.AddOption("rotated_logs", "Rotated logs", "Delete old system logs")
		c.AddAction("rotated_logs", action.Func(s.rotatedLogs))
		c.AddOption("recent_documents", "Recent documents list", "Delete the list of recently used documents")
		c.AddAction("recent_documents", action.Func(s.recentDocuments))
		c.AddOption("trash", "Trash", "Empty the trash")
		c.AddAction("trash", action.Func(s.trash))
		c.AddAction("tmp", action.Func(s.posixTmp))
	}

	if cfg.Matcher.IsWindows() {
		c.AddOption("logs", "Logs", "Delete the logs")
		c.AddAction("logs", action.Func(globDeletes(windowsLogs...)))
		c.AddOption("memory_dump", "Memory dump", "Delete the file memory.dmp")
		c.AddAction("memory_dump", action.Func(globDeletes(`$windir\memory.dmp`, `$windir\Minidump\*.dmp`)))
		c.AddOption("muicache", "MUICache", "Delete the cache")
		c.AddAction("muicache", action.Static(
			command.DeleteRegistryKey(`HKCU\Software\Microsoft\Windows\ShellNoRoam\MUICache`),
			command.DeleteRegistryKey(`HKCU\Software\Classes\Local Settings\Software\Microsoft\Windows\Shell\MuiCache`),
		))
		c.AddOption("prefetch", "Prefetch", "Delete the cache")
		c.AddAction("prefetch", action.Func(globDeletes(`$windir\Prefetch\*.pf`)))
		c.AddOption("recycle_bin", "Recycle bin", "Empty the recycle bin")
		c.AddAction("recycle_bin", action.Func(recycleBin))
		c.AddAction("tmp", action.Func(s.windowsTmp))
		c.AddOption("updates", "Update uninstallers", "Delete uninstallers for Microsoft updates including hotfixes, service packs, and Internet Explorer updates")
		c.AddAction("updates", action.Func(s.updates))
	}

	if cfg.ClearClipboard != nil {
		c.AddOption("clipboard", "Clipboard", "The desktop environment's clipboard used for copy and paste operations")
		c.AddAction("clipboard", action.Static(command.Function{
			Label: "Clipboard",
			Effect: func(string, func(float64) bool) (int64, error) {
				return 0, cfg.ClearClipboard()
			},
		}))
	}

	c.AddOption("custom", "Custom", "Delete user-specified files and folders")
	c.AddAction("custom", action.Func(s.custom))
	c.AddOption("free_disk_space", "Free disk space", "Overwrite free disk space to hide deleted files")
	c.SetWarning("free_disk_space", "This option is very slow.")
	c.AddAction("free_disk_space", action.Func(s.freeDiskSpace))
	c.AddOption("tmp", "Temporary files", "Delete the temporary files")
	return c
}

type system struct {
	cfg SystemConfig
	c   *Cleaner
}

func (s *system) home(rel string) string {
	return filepath.Join(s.cfg.Home, filepath.FromSlash(rel))
}

// deleteChildren yields a Delete for every entry below dir, post-order.
func deleteChildren(yield func(command.Command, error) bool, dir string, withDirs bool, keep func(string) bool) bool {
	for path := range fileutil.Children(dir, withDirs) {
		if keep != nil && keep(path) {
			continue
		}
		if !yield(command.Delete{Path: path}, nil) {
			return false
		}
	}
	return true
}

func (s *system) cache(yield func(command.Command, error) bool) {
	deleteChildren(yield, s.home(".cache"), true, s.c.Whitelist.IsWhitelisted)
}

func (s *system) custom(yield func(command.Command, error) bool) {
	for _, cp := range s.cfg.CustomPaths {
		switch cp.Type {
		case CustomFile:
			if !yield(command.Delete{Path: cp.Path, Explicit: true}, nil) {
				return
			}
		case CustomFolder:
			for path := range fileutil.Children(cp.Path, true) {
				if !yield(command.Delete{Path: path}, nil) {
					return
				}
			}
			if !yield(command.Delete{Path: cp.Path, Explicit: true}, nil) {
				return
			}
		default:
			if !yield(nil, fmt.Errorf("custom path %s has invalid type %q", cp.Path, cp.Type)) {
				return
			}
		}
	}
}

var menuDirs = []string{
	".local/share/applications",
	".config/autostart",
	".gnome/apps",
	".gnome2/panel2.d/default/launchers",
	".gnome2/vfolders/applications",
	".kde/share/apps/RecentDocuments",
	".kde/share/mimelnk",
	".kde2/share/mimelnk/application",
	".kde2/share/applnk",
}

func (s *system) desktopEntries(yield func(command.Command, error) bool) {
	for _, dir := range menuDirs {
		for path := range fileutil.Children(s.home(dir), false) {
			if !strings.HasSuffix(path, ".desktop") || !IsBrokenDesktopEntry(path) {
				continue
			}
			if !yield(command.Delete{Path: path}, nil) {
				return
			}
		}
	}
}

// rotatedLog matches archived log generations: numbered, compressed,
// .old and dated (-YYYYMMDD) files.
var rotatedLog = regexp.MustCompile(`(\.[0-9]+|\.gz|\.bz2|\.xz|\.old|-[0-9]{8})$`)

func (s *system) rotatedLogs(yield func(command.Command, error) bool) {
	for path := range fileutil.Children(s.cfg.LogDir, false) {
		if !rotatedLog.MatchString(filepath.Base(path)) {
			continue
		}
		if !yield(command.Delete{Path: path}, nil) {
			return
		}
	}
}

func (s *system) recentDocuments(yield func(command.Command, error) bool) {
	if path := s.home(".recently-used"); fileutil.Exists(path) {
		if !yield(command.Delete{Path: path}, nil) {
			return
		}
	}
	for _, rel := range []string{".recently-used.xbel", ".local/share/recently-used.xbel"} {
		if path := s.home(rel); fileutil.Exists(path) {
			if !yield(command.Shred{Path: path}, nil) {
				return
			}
		}
	}
}

func (s *system) trash(yield func(command.Command, error) bool) {
	if !deleteChildren(yield, s.home(".Trash"), false, nil) {
		return
	}
	for _, rel := range []string{"files", "info", "expunged"} {
		if !deleteChildren(yield, s.home(filepath.Join(".local/share/Trash", rel)), true, nil) {
			return
		}
	}
}

// posixTmp only offers regular files the current user owns, leaving
// symlinks, other users' files and whitelisted live files alone.
func (s *system) posixTmp(yield func(command.Command, error) bool) {
	for _, dir := range s.cfg.TempDirs {
		keep := func(path string) bool {
			return !fileutil.IsRegular(path) ||
				!fileutil.OwnedByCurrentUser(path) ||
				s.c.Whitelist.IsWhitelisted(path)
		}
		if !deleteChildren(yield, dir, true, keep) {
			return
		}
	}
}

// windowsTmp sweeps the user and system temp directories, sparing the
// Low integrity directory itself.
func (s *system) windowsTmp(yield func(command.Command, error) bool) {
	for _, dir := range windowsTempDirs() {
		low := strings.ToLower(filepath.Join(dir, "low"))
		keep := func(path string) bool { return strings.ToLower(path) == low }
		if !deleteChildren(yield, dir, true, keep) {
			return
		}
	}
}

func (s *system) freeDiskSpace(yield func(command.Command, error) bool) {
	for _, drive := range s.cfg.ShredDrives {
		if !yield(wipeCommand(drive), nil) {
			return
		}
	}
}

func wipeCommand(dir string) command.Function {
	return command.Function{
		Label: "Overwrite free disk space " + dir,
		Effect: func(_ string, progress func(float64) bool) (int64, error) {
			return fileutil.Wiper{Dir: dir}.Wipe(progress)
		},
	}
}

// uninstallKey holds one subkey per installed update.
const uninstallKey = `HKLM\SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\`

// updates removes each $NtUninstallKB...$ folder below the Windows directory
// together with its uninstall registry entry.
func (s *system) updates(yield func(command.Command, error) bool) {
	dirs, _ := filepath.Glob(filepath.Join(s.cfg.WinDir, "$NtUninstall*$"))
	for _, dir := range dirs {
		if !fileutil.IsDir(dir) {
			continue
		}
		kb := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(dir), "$NtUninstall"), "$")
		if kb != "" && !yield(command.DeleteRegistryKey(uninstallKey+kb), nil) {
			return
		}
		if !deleteChildren(yield, dir, true, nil) {
			return
		}
		if !yield(command.Delete{Path: dir}, nil) {
			return
		}
	}
}

// globDeletes yields a Delete for every existing match of the patterns.
func globDeletes(patterns ...string) func(func(command.Command, error) bool) {
	return func(yield func(command.Command, error) bool) {
		for _, pattern := range patterns {
			for _, path := range envutil.ExpandGlobJoin(pattern, "") {
				if !yield(command.Delete{Path: path}, nil) {
					return
				}
			}
		}
	}
}

var windowsLogs = []string{
	`$ALLUSERSPROFILE\Application Data\Microsoft\Dr Watson\*.log`,
	`$ALLUSERSPROFILE\Application Data\Microsoft\Dr Watson\user.dmp`,
	`$LocalAppData\Microsoft\Windows\WER\ReportArchive\*\*`,
	`$LocalAppData\Microsoft\Windows\WER\ReportQueue\*\*`,
	`$programdata\Microsoft\Windows\WER\ReportArchive\*\*`,
	`$programdata\Microsoft\Windows\WER\ReportQueue\*\*`,
	`$localappdata\Microsoft\Internet Explorer\brndlog.bak`,
	`$localappdata\Microsoft\Internet Explorer\brndlog.txt`,
	`$windir\*.log`,
	`$windir\imsins.BAK`,
	`$windir\OEWABLog.txt`,
	`$windir\SchedLgU.txt`,
	`$windir\ntbtlog.txt`,
	`$windir\setuplog.txt`,
	`$windir\REGLOCS.OLD`,
	`$windir\Debug\*.log`,
	`$windir\Debug\Setup\UpdSh.log`,
	`$windir\Debug\UserMode\*.log`,
	`$windir\Debug\UserMode\ChkAcc.bak`,
	`$windir\Debug\UserMode\userenv.bak`,
	`$windir\Microsoft.NET\Framework\*\*.log`,
	`$windir\pchealth\helpctr\Logs\hcupdate.log`,
	`$windir\security\logs\*.log`,
	`$windir\security\logs\*.old`,
	`$windir\SoftwareDistribution\*.log`,
	`$windir\SoftwareDistribution\DataStore\Logs\*`,
	`$windir\system32\TZLog.log`,
	`$windir\system32\config\systemprofile\Application Data\Microsoft\Internet Explorer\brndlog.bak`,
	`$windir\system32\config\systemprofile\Application Data\Microsoft\Internet Explorer\brndlog.txt`,
	`$windir\system32\LogFiles\AIT\AitEventLog.etl.???`,
	`$windir\system32\LogFiles\Firewall\pfirewall.log*`,
	`$windir\system32\LogFiles\Scm\SCM.EVM*`,
	`$windir\system32\LogFiles\WMI\Terminal*.etl`,
	`$windir\system32\LogFiles\WMI\RTBackup\EtwRT.*etl`,
	`$windir\system32\wbem\Logs\*.lo_`,
	`$windir\system32\wbem\Logs\*.log`,
}
