// Package cleaner holds the runtime facade of one cleanable category: its
// options, the providers bound to them, running-detection tests and
// warnings. Built-in cleaners and CleanerML definitions are constructed
// through the same methods.
package cleaner

import (
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sort"

	"github.com/lakshaymaurya-felt/cleanml/internal/action"
	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
	"github.com/lakshaymaurya-felt/cleanml/internal/process"
	"github.com/lakshaymaurya-felt/cleanml/pkg/whitelist"
)

var (
	// ErrUnknownOption is returned when reading an option the cleaner does
	// not declare.
	ErrUnknownOption = errors.New("unknown option")

	// ErrUnknownRunningTest is returned by IsRunning for a detection type
	// other than exe, pathname or path.
	ErrUnknownRunningTest = errors.New("unknown running-detection test")
)

// Running-detection types.
const (
	RunningExe      = "exe"
	RunningPathname = "pathname"
	RunningPath     = "path"
)

// Option is one user-toggleable part of a cleaner.
type Option struct {
	ID          string
	Name        string
	Description string
}

// RunningTest detects that the cleaned application is running.
type RunningTest struct {
	Type  string
	Value string
}

// ProcessLookup reports whether an executable is running.
type ProcessLookup interface {
	IsRunning(exe string) (bool, error)
}

type binding struct {
	option   string
	provider action.Provider
}

// Cleaner is not safe for concurrent use. After construction it is only
// read.
type Cleaner struct {
	ID          string
	Name        string
	Description string

	// Whitelist guards generic sweeps; only the System cleaner sets it.
	Whitelist *whitelist.Whitelist

	// Processes resolves exe running tests. The host process table is used
	// when nil.
	Processes ProcessLookup

	options  map[string]Option
	actions  []binding
	warnings map[string]string
	running  []RunningTest
}

// New returns an empty cleaner.
func New(id, name, description string) *Cleaner {
	return &Cleaner{
		ID:          id,
		Name:        name,
		Description: description,
		options:     make(map[string]Option),
		warnings:    make(map[string]string),
	}
}

// AddOption declares an option, replacing any earlier one with the same id.
func (c *Cleaner) AddOption(id, name, description string) {
	c.options[id] = Option{ID: id, Name: name, Description: description}
}

// AddAction binds p to optionID. The option need not be declared yet and
// several providers may share one option.
func (c *Cleaner) AddAction(optionID string, p action.Provider) {
	c.actions = append(c.actions, binding{option: optionID, provider: p})
}

// AddRunning registers a running-detection test. Its type is checked by
// IsRunning.
func (c *Cleaner) AddRunning(typ, value string) {
	c.running = append(c.running, RunningTest{Type: typ, Value: value})
}

// SetWarning attaches a confirmation text to an option.
func (c *Cleaner) SetWarning(optionID, text string) {
	c.warnings[optionID] = text
}

// HasOption reports whether id is declared.
func (c *Cleaner) HasOption(id string) bool {
	_, ok := c.options[id]
	return ok
}

// Options returns the declared options sorted by id.
func (c *Cleaner) Options() []Option {
	opts := make([]Option, 0, len(c.options))
	for _, o := range c.options {
		opts = append(opts, o)
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })
	return opts
}

// OptionDescriptions returns (name, description) pairs sorted by option id.
func (c *Cleaner) OptionDescriptions() [][2]string {
	opts := c.Options()
	out := make([][2]string, len(opts))
	for i, o := range opts {
		out[i] = [2]string{o.Name, o.Description}
	}
	return out
}

// Warning returns the option's warning, if any.
func (c *Cleaner) Warning(optionID string) (string, bool) {
	w, ok := c.warnings[optionID]
	return w, ok
}

// Running returns the registered running-detection tests in order.
func (c *Cleaner) Running() []RunningTest {
	return append([]RunningTest(nil), c.running...)
}

// IsUsable reports whether at least one action was bound.
func (c *Cleaner) IsUsable() bool {
	return len(c.actions) > 0
}

func (c *Cleaner) checkOption(optionID string) error {
	if !c.HasOption(optionID) {
		return fmt.Errorf("%w %q in cleaner %q", ErrUnknownOption, optionID, c.ID)
	}
	return nil
}

// Commands returns the lazy command stream of an option, in binding order.
// Each range re-walks the targets.
func (c *Cleaner) Commands(optionID string) (iter.Seq2[command.Command, error], error) {
	if err := c.checkOption(optionID); err != nil {
		return nil, err
	}
	return func(yield func(command.Command, error) bool) {
		for _, b := range c.actions {
			if b.option != optionID {
				continue
			}
			for cmd, err := range b.provider.Commands() {
				if !yield(cmd, err) {
					return
				}
			}
		}
	}, nil
}

// DeepScan returns the deep-scan entries of an option.
func (c *Cleaner) DeepScan(optionID string) (iter.Seq[action.DeepScanEntry], error) {
	if err := c.checkOption(optionID); err != nil {
		return nil, err
	}
	return func(yield func(action.DeepScanEntry) bool) {
		for _, b := range c.actions {
			if b.option != optionID {
				continue
			}
			for e := range b.provider.DeepScan() {
				if !yield(e) {
					return
				}
			}
		}
	}, nil
}

// IsRunning runs the detection tests in order and stops at the first hit.
func (c *Cleaner) IsRunning() (bool, error) {
	logger := logging.GetLogger("cleaner")
	for _, test := range c.running {
		switch test.Type {
		case RunningExe:
			lookup := c.Processes
			if lookup == nil {
				lookup = process.New()
			}
			running, err := lookup.IsRunning(test.Value)
			if err != nil {
				return false, fmt.Errorf("looking up process %q: %w", test.Value, err)
			}
			if running {
				logger.Debug().Str("cleaner", c.ID).Str("exe", test.Value).Msg("Process is running")
				return true, nil
			}
		case RunningPathname, RunningPath:
			if match := firstExisting(test.Value); match != "" {
				logger.Debug().Str("cleaner", c.ID).Str("path", match).Msg("File exists indicating application is running")
				return true, nil
			}
		default:
			return false, fmt.Errorf("%w %q in cleaner %q", ErrUnknownRunningTest, test.Type, c.ID)
		}
	}
	return false, nil
}

func firstExisting(pattern string) string {
	expanded := envutil.ExpandPath(pattern)
	if !envutil.HasGlob(expanded) {
		if fileutil.Exists(expanded) {
			return expanded
		}
		return ""
	}
	matches, _ := filepath.Glob(expanded)
	for _, m := range matches {
		if fileutil.Exists(m) {
			return m
		}
	}
	return ""
}

// AutoHide reports whether the cleaner has nothing to do on this host:
// no option previews a single outcome or deep-scan entry. An option whose
// probe fails is logged and skipped; the remaining options are still
// probed.
func (c *Cleaner) AutoHide() bool {
	logger := logging.GetLogger("cleaner")
	for _, opt := range c.Options() {
		found, err := c.probe(opt.ID)
		if err != nil {
			logger.Warn().Err(err).Str("cleaner", c.ID).Str("option", opt.ID).Msg("Probe failed in auto-hide")
			continue
		}
		if found {
			return false
		}
	}
	return true
}

func (c *Cleaner) probe(optionID string) (found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = false, fmt.Errorf("panic: %v", r)
		}
	}()

	cmds, err := c.Commands(optionID)
	if err != nil {
		return false, err
	}
	for cmd, err := range cmds {
		if err != nil {
			return false, err
		}
		for _, err := range cmd.Execute(false) {
			if err != nil {
				return false, err
			}
			return true, nil
		}
	}
	entries, err := c.DeepScan(optionID)
	if err != nil {
		return false, err
	}
	for range entries {
		return true, nil
	}
	return false, nil
}
