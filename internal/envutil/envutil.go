// Package envutil expands environment variables, the home directory and
// glob patterns inside path templates.
package envutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// percentVar matches Windows-style %NAME% references.
var percentVar = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_()]*)%`)

// ExpandWindowsEnv resolves environment variables in a path, supporting both
// Windows %VAR% and Unix $VAR / ${VAR} syntax. References to unset variables
// are left untouched so a broken template never collapses into a parent
// directory.
func ExpandWindowsEnv(path string) string {
	path = percentVar.ReplaceAllStringFunc(path, func(ref string) string {
		name := ref[1 : len(ref)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return ref
	})
	if !strings.Contains(path, "$") {
		return path
	}
	return os.Expand(path, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if name == "$" {
			return "$$"
		}
		return "${" + name + "}"
	})
}

// ExpandUser replaces a leading ~ with the current user's home directory.
func ExpandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}

// ExpandPath expands environment variables and then the home directory.
func ExpandPath(path string) string {
	return ExpandUser(ExpandWindowsEnv(path))
}

// ExpandGlobJoin joins base and suffix, expands variables in the result and
// returns every existing path matching it as a glob. An empty suffix globs
// base itself.
func ExpandGlobJoin(base, suffix string) []string {
	pattern := base
	if suffix != "" {
		pattern = filepath.Join(base, suffix)
	}
	pattern = ExpandPath(pattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil
	}
	return matches
}

// HasGlob reports whether path contains glob metacharacters.
func HasGlob(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
