// Package action turns the attributes of one declarative action into a
// Provider: a lazy producer of commands and deep-scan descriptors. Providers
// are built through an explicit map from command key to Factory.
package action

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
)

var (
	// ErrUnresolvableAction is returned for a command key with no factory.
	ErrUnresolvableAction = errors.New("unresolvable action")

	// ErrInvalidAttributes is returned when an action's attributes cannot
	// be used to build a provider.
	ErrInvalidAttributes = errors.New("invalid action attributes")
)

// Attributes are the command-specific attributes of one action element.
type Attributes map[string]string

// Get returns the attribute or an empty string.
func (a Attributes) Get(name string) string {
	return a[name]
}

// Require returns the attribute or an ErrInvalidAttributes error.
func (a Attributes) Require(name string) (string, error) {
	v, ok := a[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidAttributes, name)
	}
	return v, nil
}

// DeepScanEntry describes a broader scan: every file below Path whose name
// matches the filters is handed to the action named by Command. Build, when
// set, makes that action's command for a match; without it only "delete"
// and "shred" can run.
type DeepScanEntry struct {
	Path        string
	Regex       string
	NRegex      string
	WholeRegex  string
	NWholeRegex string
	Command     string
	Build       func(path string) command.Command
}

// Provider produces the commands of one action. Each range over Commands
// walks the filesystem again; nothing is cached between calls.
type Provider interface {
	Commands() iter.Seq2[command.Command, error]
	DeepScan() iter.Seq[DeepScanEntry]
}

// Factory builds a provider from attributes and the owning cleaner's
// variable table.
type Factory func(attrs Attributes, table *vars.Table) (Provider, error)

// ─── Simple providers ────────────────────────────────────────────────────────

// Func adapts a generator function to the Provider interface. It has no
// deep-scan entries.
type Func func(yield func(command.Command, error) bool)

func (f Func) Commands() iter.Seq2[command.Command, error] {
	return iter.Seq2[command.Command, error](f)
}

func (f Func) DeepScan() iter.Seq[DeepScanEntry] {
	return func(func(DeepScanEntry) bool) {}
}

// Noop returns a provider that produces nothing.
func Noop() Provider {
	return Func(func(func(command.Command, error) bool) {})
}

// Static returns a provider that yields cmds in order.
func Static(cmds ...command.Command) Provider {
	return Func(func(yield func(command.Command, error) bool) {
		for _, c := range cmds {
			if !yield(c, nil) {
				return
			}
		}
	})
}

// ─── Registry ────────────────────────────────────────────────────────────────

// Registry maps command keys to factories. It is populated once at startup
// and read-only afterwards.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for key. Keys are unique.
func (r *Registry) Register(key string, f Factory) error {
	if key == "" {
		return fmt.Errorf("action key cannot be empty")
	}
	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("action %q is already registered", key)
	}
	r.factories[key] = f
	return nil
}

// MustRegister registers a factory and panics on a duplicate key.
func (r *Registry) MustRegister(key string, f Factory) {
	if err := r.Register(key, f); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under exactly key.
func (r *Registry) Lookup(key string) (Factory, error) {
	f, ok := r.factories[key]
	if !ok {
		return nil, fmt.Errorf("%w: invalid command %q", ErrUnresolvableAction, key)
	}
	return f, nil
}

// Build looks up key and constructs its provider.
func (r *Registry) Build(key string, attrs Attributes, table *vars.Table) (Provider, error) {
	f, err := r.Lookup(key)
	if err != nil {
		return nil, err
	}
	p, err := f(attrs, table)
	if err != nil {
		return nil, fmt.Errorf("action %q: %w", key, err)
	}
	if k, ok := p.(interface{ setKey(string) }); ok {
		k.setKey(key)
	}
	return p, nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.factories))
	for k := range r.factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Default returns a registry with every built-in action.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister("delete", fileFactory(func(p string) command.Command { return command.Delete{Path: p} }))
	r.MustRegister("shred", fileFactory(func(p string) command.Command { return command.Shred{Path: p} }))
	r.MustRegister("truncate", fileFactory(func(p string) command.Command {
		return command.Function{Path: p, Label: "Truncate", Effect: truncateEffect}
	}))
	r.MustRegister("sqlite.vacuum", fileFactory(func(p string) command.Command {
		return command.Function{Path: p, Label: "Vacuum", Effect: vacuumEffect}
	}))
	r.MustRegister("json", jsonFactory)
	r.MustRegister("ini", iniFactory)
	r.MustRegister("winreg", winregFactory)
	r.MustRegister("process", processFactory)
	r.MustRegister("apt.autoclean", aptFactory("autoclean"))
	r.MustRegister("apt.autoremove", aptFactory("autoremove"))
	r.MustRegister("apt.clean", aptFactory("clean"))
	return r
}
