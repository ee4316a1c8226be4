// Package deepscan runs the deep-scan phase of a cleaning pass. Deep-scan
// entries naming the same directory are grouped so each directory tree is
// walked once, whatever the number of options asking for it.
package deepscan

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
)

// DefaultConcurrency bounds the number of directories read at once.
const DefaultConcurrency = 4

// Whitelist reports paths that must never be scanned into commands.
type Whitelist interface {
	IsWhitelisted(path string) bool
}

// Scanner matches files below deep-scan roots.
type Scanner struct {
	sem       chan struct{}
	whitelist Whitelist

	scannedCount atomic.Int64
}

// NewScanner creates a scanner reading at most maxConcurrency directories at
// a time. whitelist may be nil; it applies to every root of the scanner, so
// pass one only for roots that are not user-specified targets.
func NewScanner(maxConcurrency int, whitelist Whitelist) *Scanner {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}
	return &Scanner{
		sem:       make(chan struct{}, maxConcurrency),
		whitelist: whitelist,
	}
}

// ScannedCount returns the number of files examined so far.
func (s *Scanner) ScannedCount() int64 {
	return s.scannedCount.Load()
}

type matcher struct {
	regex, nregex, wholeRegex, nwholeRegex *regexp.Regexp
	build                                  func(path string) command.Command
}

func compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

func newMatcher(e action.DeepScanEntry) (*matcher, error) {
	m := &matcher{}
	var err error
	if m.regex, err = compile(e.Regex); err != nil {
		return nil, err
	}
	if m.nregex, err = compile(e.NRegex); err != nil {
		return nil, err
	}
	if m.wholeRegex, err = compile(e.WholeRegex); err != nil {
		return nil, err
	}
	if m.nwholeRegex, err = compile(e.NWholeRegex); err != nil {
		return nil, err
	}
	switch {
	case e.Build != nil:
		m.build = e.Build
	case e.Command == "" || e.Command == "delete":
		m.build = func(path string) command.Command { return command.Delete{Path: path} }
	case e.Command == "shred":
		m.build = func(path string) command.Command { return command.Shred{Path: path} }
	default:
		return nil, fmt.Errorf("unknown deep scan command %q", e.Command)
	}
	return m, nil
}

func (m *matcher) match(path string) bool {
	name := filepath.Base(path)
	if m.regex != nil && !m.regex.MatchString(name) {
		return false
	}
	if m.nregex != nil && m.nregex.MatchString(name) {
		return false
	}
	if m.wholeRegex != nil && !m.wholeRegex.MatchString(path) {
		return false
	}
	if m.nwholeRegex != nil && m.nwholeRegex.MatchString(path) {
		return false
	}
	return true
}

func (m *matcher) command(path string) command.Command {
	return m.build(path)
}

type group struct {
	root     string
	matchers []*matcher
}

// groupEntries collects entries by cleaned root, keeping first-seen order.
// Entries with invalid filters are reported and dropped.
func groupEntries(entries iter.Seq[action.DeepScanEntry]) ([]*group, []error) {
	var (
		groups []*group
		errs   []error
		byRoot = make(map[string]*group)
	)
	for e := range entries {
		m, err := newMatcher(e)
		if err != nil {
			errs = append(errs, fmt.Errorf("deep scan of %s: %w", e.Path, err))
			continue
		}
		root := filepath.Clean(e.Path)
		g, ok := byRoot[root]
		if !ok {
			g = &group{root: root}
			byRoot[root] = g
			groups = append(groups, g)
		}
		g.matchers = append(g.matchers, m)
	}
	return groups, errs
}

// Scan walks every distinct root once and yields one command per matching
// file. A file matched by several entries of the same root gets the first
// entry's command. Roots are walked in parallel; commands are yielded in
// entry order, root by root. Stopping the iteration cancels pending walks.
func (s *Scanner) Scan(ctx context.Context, entries iter.Seq[action.DeepScanEntry]) iter.Seq2[command.Command, error] {
	return func(yield func(command.Command, error) bool) {
		logger := logging.GetLogger("deepscan")
		groups, errs := groupEntries(entries)
		for _, err := range errs {
			if !yield(nil, err) {
				return
			}
		}
		if len(groups) == 0 {
			return
		}
		logger.Debug().Int("roots", len(groups)).Msg("Starting deep scan")

		ctx, cancel := context.WithCancel(ctx)
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
		}()

		outputs := make([]chan command.Command, len(groups))
		for i, g := range groups {
			outputs[i] = make(chan command.Command, 64)
			wg.Add(1)
			go func(g *group, out chan<- command.Command) {
				defer wg.Done()
				defer close(out)
				s.walk(ctx, g, g.root, out)
			}(g, outputs[i])
		}

		for _, out := range outputs {
			for cmd := range out {
				if !yield(cmd, nil) {
					return
				}
			}
		}
		if err := ctx.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// walk visits dir depth-first, holding the semaphore only while reading a
// directory so nested reads cannot deadlock.
func (s *Scanner) walk(ctx context.Context, g *group, dir string, out chan<- command.Command) bool {
	if ctx.Err() != nil {
		return false
	}
	s.sem <- struct{}{}
	entries, err := os.ReadDir(longPath(dir))
	<-s.sem
	if err != nil {
		logger := logging.GetLogger("deepscan")
		logger.Debug().Err(err).Str("dir", dir).Msg("Cannot read directory")
		return true
	}

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if isReparsePoint(path) {
				continue
			}
			if !s.walk(ctx, g, path, out) {
				return false
			}
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		s.scannedCount.Add(1)
		if s.whitelist != nil && s.whitelist.IsWhitelisted(path) {
			continue
		}
		for _, m := range g.matchers {
			if !m.match(path) {
				continue
			}
			select {
			case out <- m.command(path):
			case <-ctx.Done():
				return false
			}
			break
		}
	}
	return true
}
