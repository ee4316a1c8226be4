// Package vars holds the per-cleaner variable table of path templates and
// substitutes $$name$$ references in action attributes.
package vars

import (
	"regexp"

	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/platform"
)

// reference matches $$name$$ inside a template.
var reference = regexp.MustCompile(`\$\$([A-Za-z0-9_.-]+)\$\$`)

// Table maps a variable name to an ordered list of path templates. The zero
// value is not usable; call New.
type Table struct {
	matcher platform.Matcher
	values  map[string][]string
}

// New creates an empty table filtering declarations through matcher.
func New(matcher platform.Matcher) *Table {
	return &Table{
		matcher: matcher,
		values:  make(map[string][]string),
	}
}

// Declare adds one value to variable name. Values whose os requirement does
// not match are dropped. Glob values are expanded immediately; the values of
// a later declaration take priority over earlier ones.
func (t *Table) Declare(name, template, os string, isGlob bool) error {
	ok, err := t.matcher.Match(os)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var values []string
	if isGlob {
		values = envutil.ExpandGlobJoin(template, "")
	} else {
		values = []string{template}
	}
	t.values[name] = append(values, t.values[name]...)
	return nil
}

// Resolve returns the values of name, most recent declaration first.
func (t *Table) Resolve(name string) []string {
	return append([]string(nil), t.values[name]...)
}

// Has reports whether name has at least one value.
func (t *Table) Has(name string) bool {
	return len(t.values[name]) > 0
}

// Len returns the number of declared variables.
func (t *Table) Len() int {
	return len(t.values)
}

// Substitute expands every $$name$$ reference in s. Each reference
// multiplies the result by the number of values of its variable, so a
// template with two references to variables of two values each yields four
// strings. Only references written in s are expanded; values are spliced in
// verbatim, even when they contain $$name$$ themselves. A string without
// references is returned as is; a reference to an undeclared variable yields
// nothing.
func (t *Table) Substitute(s string) []string {
	locs := reference.FindAllStringSubmatchIndex(s, -1)
	if locs == nil {
		return []string{s}
	}
	out := []string{""}
	last := 0
	for _, loc := range locs {
		literal := s[last:loc[0]]
		values := t.values[s[loc[2]:loc[3]]]
		next := make([]string, 0, len(out)*len(values))
		for _, prefix := range out {
			for _, v := range values {
				next = append(next, prefix+literal+v)
			}
		}
		out = next
		last = loc[1]
	}
	for i := range out {
		out[i] += s[last:]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
