package cleanerml

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
)

// ListFiles returns the *.xml files directly inside dirs, in directory
// order. Unless m targets win32, world-writable files are skipped with a
// warning.
func ListFiles(m platform.Matcher, dirs ...string) []string {
	logger := logging.GetLogger("cleanerml")
	checkPerm := m.Platform != "win32"

	var files []string
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn().Err(err).Str("dir", dir).Msg("Cannot read cleaner directory")
			}
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if checkPerm && fileutil.IsWorldWritable(info.Mode()) {
				logger.Warn().Str("path", path).Msg("Ignoring cleaner because it is world writable")
				continue
			}
			files = append(files, path)
		}
	}
	return files
}

// Source loads the definitions found in Dirs. Dirs are listed in priority
// order, so a personal directory comes before the system one.
type Source struct {
	Loader *Loader
	Dirs   []string
}

// Name identifies the source in logs.
func (s *Source) Name() string { return "cleanerml" }

// Load parses every listed file. Files that fail to parse and cleaners
// without actions are logged and skipped.
func (s *Source) Load(ctx context.Context) ([]*cleaner.Cleaner, error) {
	logger := logging.GetLogger("cleanerml")
	var cleaners []*cleaner.Cleaner
	for _, path := range ListFiles(s.Loader.Matcher, s.Dirs...) {
		if err := ctx.Err(); err != nil {
			return cleaners, err
		}
		c, err := s.Loader.LoadFile(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Error reading cleaner")
			continue
		}
		if c == nil {
			logger.Debug().Str("path", path).Msg("Cleaner does not apply to this platform")
			continue
		}
		if !c.IsUsable() {
			logger.Debug().Str("path", path).Msg("Cleaner is not usable on this OS because it has no actions")
			continue
		}
		cleaners = append(cleaners, c)
	}
	return cleaners, nil
}
