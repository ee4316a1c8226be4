package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"

	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
)

// cleanersDirName is the directory name holding CleanerML files, both under
// the XDG roots and next to a portable executable.
const cleanersDirName = "cleaners"

// ExecutableDir returns the directory of the running executable, or empty.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// PortableDir returns the cleaners directory next to exeDir when it exists.
func PortableDir(exeDir string) (string, bool) {
	if exeDir == "" {
		return "", false
	}
	dir := filepath.Join(exeDir, cleanersDirName)
	return dir, fileutil.IsDir(dir)
}

// SearchDirs returns the CleanerML directories in load order: the
// configured directory, the personal directory, then the system data
// directories. A portable layout, detected next to exeDir, replaces the
// personal and system directories.
func (c *Config) SearchDirs(exeDir string) []string {
	var dirs []string
	if c.CleanersDir != "" {
		dirs = append(dirs, expand(c.CleanersDir))
	}
	if portable, ok := PortableDir(exeDir); ok {
		logger := logging.GetLogger("config")
		logger.Debug().Str("dir", portable).Msg("Using portable cleaners directory")
		return append(dirs, portable)
	}

	dirs = append(dirs, filepath.Join(xdg.ConfigHome, logging.AppName, cleanersDirName))
	for _, data := range xdg.DataDirs {
		dirs = append(dirs, filepath.Join(data, logging.AppName, cleanersDirName))
	}
	return dirs
}

func expand(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		return filepath.Join(xdg.Home, strings.TrimPrefix(path, "~"))
	}
	return os.ExpandEnv(path)
}

// ─── Protected paths ─────────────────────────────────────────────────────────

func winDir() string {
	if w := os.Getenv("WINDIR"); w != "" {
		return w
	}
	return `C:\Windows`
}

func programData() string {
	if p := os.Getenv("PROGRAMDATA"); p != "" {
		return p
	}
	return `C:\ProgramData`
}

func systemDrive() string {
	if d := os.Getenv("SYSTEMDRIVE"); d != "" {
		return d + `\`
	}
	return `C:\`
}

func programFiles() string {
	if p := os.Getenv("PROGRAMFILES"); p != "" {
		return p
	}
	return `C:\Program Files`
}

func programFilesX86() string {
	if p := os.Getenv("PROGRAMFILES(X86)"); p != "" {
		return p
	}
	return `C:\Program Files (x86)`
}

// ProtectedPaths returns paths that ad-hoc shredding must never target.
func ProtectedPaths() []string {
	if runtime.GOOS == "windows" {
		w := winDir()
		sd := systemDrive()
		return []string{
			w,
			filepath.Join(w, "System32"),
			filepath.Join(w, "SysWOW64"),
			filepath.Join(w, "WinSxS"),
			filepath.Join(sd, "Boot"),
			filepath.Join(sd, "EFI"),
			filepath.Join(sd, "Users"),
			filepath.Join(sd, "Recovery"),
			sd,
			programFiles(),
			programFilesX86(),
			programData(),
			xdg.Home,
		}
	}
	return []string{
		"/", "/bin", "/boot", "/dev", "/etc", "/home", "/lib", "/lib64",
		"/opt", "/proc", "/root", "/sbin", "/sys", "/usr", "/var",
		xdg.Home,
	}
}

// IsProtected reports whether path is one of ProtectedPaths.
func IsProtected(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range ProtectedPaths() {
		if p == "" {
			continue
		}
		p = filepath.Clean(p)
		if abs == p || (runtime.GOOS == "windows" && strings.EqualFold(abs, p)) {
			return true
		}
	}
	return false
}
