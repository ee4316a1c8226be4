// Package command defines the concrete effects a cleaner produces: deleting
// or shredding a file, removing a registry entry, or running a special
// function. Commands are values; executing one yields its outcomes lazily so
// a driver can preview, report progress or stop between items.
package command

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"

	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/winreg"
)

// Kind tags the variant of a Command.
type Kind int

const (
	KindDelete Kind = iota
	KindShred
	KindRegistry
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindDelete:
		return "delete"
	case KindShred:
		return "shred"
	case KindRegistry:
		return "registry"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// Result is one outcome of executing a command. A Partial result only
// reports progress; the terminal result of a command is never partial.
type Result struct {
	Kind    Kind
	Label   string
	Path    string
	Size    int64 // bytes freed, or that would be freed in preview
	Deleted int   // filesystem or registry entries removed
	Special int   // special operations performed

	Partial  bool
	Progress float64 // in [0,1] when Partial
}

// Command is a previewable, executable effect. Execute(false) must not
// mutate anything but still checks that the target exists, so that preview
// totals match a real run. A target that vanished before execution yields
// no result and no error.
type Command interface {
	Kind() Kind
	Execute(really bool) iter.Seq2[Result, error]
	String() string
}

// ─── Delete / Shred ──────────────────────────────────────────────────────────

// Delete removes one filesystem entry without overwriting it. Explicit marks
// a target the user named directly; a missing explicit target is reported
// as an error instead of skipped.
type Delete struct {
	Path     string
	Explicit bool
}

func (d Delete) Kind() Kind     { return KindDelete }
func (d Delete) String() string { return "Delete " + d.Path }

func (d Delete) Execute(really bool) iter.Seq2[Result, error] {
	return removeSeq(KindDelete, "Delete", d.Path, d.Explicit, really, fileutil.Delete)
}

// Shred overwrites a file before removing it.
type Shred struct {
	Path     string
	Explicit bool
}

func (s Shred) Kind() Kind     { return KindShred }
func (s Shred) String() string { return "Shred " + s.Path }

func (s Shred) Execute(really bool) iter.Seq2[Result, error] {
	return removeSeq(KindShred, "Shred", s.Path, s.Explicit, really, fileutil.Shred)
}

func removeSeq(kind Kind, label, path string, explicit, really bool, remove func(string) error) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if _, err := os.Lstat(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				yield(Result{}, fmt.Errorf("%s %s: %w", label, path, err))
			}
			return
		}
		res := Result{Kind: kind, Label: label, Path: path, Size: fileutil.Size(path), Deleted: 1}
		if really {
			if err := remove(path); err != nil {
				if !explicit && errors.Is(err, fs.ErrNotExist) {
					return
				}
				yield(Result{}, fmt.Errorf("%s %s: %w", label, path, err))
				return
			}
		}
		yield(res, nil)
	}
}

// ─── Registry ────────────────────────────────────────────────────────────────

// RegistryEdit removes a registry value, or the whole key when HasValue is
// false. Outside Windows the target never exists and nothing is yielded.
type RegistryEdit struct {
	Key      string
	Value    string
	HasValue bool
}

// DeleteRegistryKey returns a command removing key with all its values.
func DeleteRegistryKey(key string) RegistryEdit {
	return RegistryEdit{Key: key}
}

// DeleteRegistryValue returns a command removing one value of key.
func DeleteRegistryValue(key, value string) RegistryEdit {
	return RegistryEdit{Key: key, Value: value, HasValue: true}
}

func (r RegistryEdit) Kind() Kind { return KindRegistry }

func (r RegistryEdit) String() string {
	if r.HasValue {
		return fmt.Sprintf("Delete registry value %s\\%s", r.Key, r.Value)
	}
	return "Delete registry key " + r.Key
}

func (r RegistryEdit) target() string {
	if r.HasValue {
		return r.Key + `\` + r.Value
	}
	return r.Key
}

func (r RegistryEdit) Execute(really bool) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if !winreg.Exists(r.Key, r.Value, r.HasValue) {
			return
		}
		if really {
			if err := winreg.Delete(r.Key, r.Value, r.HasValue); err != nil {
				yield(Result{}, fmt.Errorf("%s: %w", r, err))
				return
			}
		}
		yield(Result{Kind: KindRegistry, Label: "Delete registry", Path: r.target(), Deleted: 1}, nil)
	}
}

// ─── Function ────────────────────────────────────────────────────────────────

// Effect performs a special operation. path is the Function's Path, or empty.
// Long effects call progress periodically and must return promptly once it
// reports false. The returned size is the number of bytes released.
type Effect func(path string, progress func(float64) bool) (int64, error)

// Function runs an arbitrary effect such as vacuuming a database or wiping
// free disk space. Path, when set, only identifies and sizes the target.
type Function struct {
	Path   string
	Effect Effect
	Label  string
}

func (f Function) Kind() Kind { return KindFunction }

func (f Function) String() string {
	if f.Path == "" {
		return f.Label
	}
	return f.Label + " " + f.Path
}

func (f Function) Execute(really bool) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if f.Path != "" && !fileutil.Exists(f.Path) {
			return
		}
		res := Result{Kind: KindFunction, Label: f.Label, Path: f.Path, Special: 1}
		if !really || f.Effect == nil {
			yield(res, nil)
			return
		}

		stopped := false
		size, err := f.Effect(f.Path, func(p float64) bool {
			if stopped {
				return false
			}
			if !yield(Result{Kind: KindFunction, Label: f.Label, Path: f.Path, Partial: true, Progress: p}, nil) {
				stopped = true
			}
			return !stopped
		})
		if stopped {
			return
		}
		if err != nil {
			yield(Result{}, fmt.Errorf("%s: %w", f, err))
			return
		}
		res.Size = size
		yield(res, nil)
	}
}

// Noop is a Function with no effect, used where a cleaner must own an
// action that never touches anything.
func Noop(label string) Function {
	return Function{Label: label, Effect: func(string, func(float64) bool) (int64, error) { return 0, nil }}
}
