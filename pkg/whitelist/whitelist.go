// Package whitelist protects live lock files, sockets and caches owned by
// more specific cleaners from the broad temp and cache sweeps.
package whitelist

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
)

// Whitelist is a set of anchored regular expressions compiled once, on the
// first call to IsWhitelisted. It is safe for concurrent use.
type Whitelist struct {
	patterns []string

	once     sync.Once
	compiled []*regexp.Regexp
	compiles int
}

// New returns a whitelist over patterns. Patterns are matched from the
// start of the path; invalid ones are logged and ignored when compiled.
func New(patterns ...string) *Whitelist {
	return &Whitelist{patterns: patterns}
}

// Add appends patterns. It has no effect once the whitelist was used.
func (w *Whitelist) Add(patterns ...string) {
	w.patterns = append(w.patterns, patterns...)
}

// Patterns returns the source patterns.
func (w *Whitelist) Patterns() []string {
	return append([]string(nil), w.patterns...)
}

func (w *Whitelist) compile() {
	logger := logging.GetLogger("whitelist")
	w.compiles++
	for _, p := range w.patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Warn().Err(err).Str("pattern", p).Msg("Ignoring invalid whitelist pattern")
			continue
		}
		w.compiled = append(w.compiled, re)
	}
}

// IsWhitelisted reports whether path matches any pattern at its start.
func (w *Whitelist) IsWhitelisted(path string) bool {
	if w == nil {
		return false
	}
	w.once.Do(w.compile)
	for _, re := range w.compiled {
		if loc := re.FindStringIndex(path); loc != nil && loc[0] == 0 {
			return true
		}
	}
	return false
}

// Default returns the patterns guarding the System cleaner's sweeps.
func Default() *Whitelist {
	home, _ := os.UserHomeDir()
	cache := func(sub string) string {
		return "^" + regexp.QuoteMeta(filepath.Join(home, ".cache", sub))
	}
	return New(
		`^/tmp/.X0-lock$`,
		`^/tmp/.truecrypt_aux_mnt.*/(control|volume)$`,
		`^/tmp/.vbox-[^/]+-ipc/lock$`,
		`^/tmp/.wine-[0-9]+/server-.*/lock$`,
		`^/tmp/gconfd-[^/]+/lock/ior$`,
		`^/tmp/fsa/`,
		`^/tmp/kde-`,
		`^/tmp/kdesudo-`,
		`^/tmp/ksocket-`,
		`^/tmp/orbit-[^/]+/bonobo-activation-register[a-z0-9-]*.lock$`,
		`^/tmp/orbit-[^/]+/bonobo-activation-server-[a-z0-9-]*ior$`,
		`^/tmp/pulse-[^/]+/pid$`,
		`^/var/tmp/kdecache-`,
		cache("wallpaper")+"/",
		cache("mozilla"),
		cache("google-chrome"),
		cache("gnome-control-center")+"/",
		cache("ibus")+"/",
		cache("obexd")+"/",
	)
}
