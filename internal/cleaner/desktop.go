package cleaner

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
)

// IsBrokenDesktopEntry reports whether a freedesktop .desktop file is
// unusable: it has no [Desktop Entry] group or Type, it is a Link without
// a URL, or it is an Application whose program is not installed.
func IsBrokenDesktopEntry(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var (
		group   string
		inEntry bool
		keys    = make(map[string]string)
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			group = line[1 : len(line)-1]
			if group == "Desktop Entry" {
				inEntry = true
			}
			continue
		}
		if group != "Desktop Entry" {
			continue
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			keys[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	if sc.Err() != nil {
		return false
	}

	if !inEntry {
		return true
	}
	switch keys["Type"] {
	case "":
		return true
	case "Link":
		return keys["URL"] == ""
	case "Application":
		if try := keys["TryExec"]; try != "" && !programExists(try) {
			return true
		}
		prog := execProgram(keys["Exec"])
		return prog == "" || !programExists(prog)
	}
	return false
}

// execProgram returns the program of an Exec line, skipping an env
// wrapper and its assignments.
func execProgram(line string) string {
	fields := strings.Fields(line)
	for i := 0; i < len(fields); i++ {
		f := strings.Trim(fields[i], `"'`)
		if i == 0 && filepath.Base(f) == "env" {
			continue
		}
		if strings.Contains(f, "=") {
			continue
		}
		return f
	}
	return ""
}

func programExists(prog string) bool {
	if filepath.IsAbs(prog) {
		return fileutil.Exists(prog)
	}
	_, err := exec.LookPath(prog)
	return err == nil
}
