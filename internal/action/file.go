package action

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"regexp"

	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/envutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/fileutil"
	"github.com/lakshaymaurya-felt/cleanml/internal/vars"
)

// Search modes of file-based actions.
const (
	SearchFile     = "file"
	SearchGlob     = "glob"
	SearchWalkFile = "walk.files"
	SearchWalkAll  = "walk.all"
	SearchWalkTop  = "walk.top"
	SearchDeep     = "deep"
)

var searchModes = map[string]bool{
	SearchFile: true, SearchGlob: true, SearchWalkFile: true,
	SearchWalkAll: true, SearchWalkTop: true, SearchDeep: true,
}

// FileProvider finds filesystem targets from a path template and turns each
// into a command.
type FileProvider struct {
	Paths  []string // templates after $$var$$ substitution
	Search string
	Type   string // "f", "d" or empty
	Key    string // action key, reported by deep-scan entries

	regex, nregex, wholeRegex, nwholeRegex *regexp.Regexp
	raw                                    Attributes
	build                                  func(path string) command.Command
}

// NewFileProvider parses the common file attributes: path, search, type,
// regex, nregex, wholeregex and nwholeregex.
func NewFileProvider(attrs Attributes, table *vars.Table, mk func(string) command.Command) (*FileProvider, error) {
	path, err := attrs.Require("path")
	if err != nil {
		return nil, err
	}
	search := attrs.Get("search")
	if search == "" {
		search = SearchFile
	}
	if !searchModes[search] {
		return nil, fmt.Errorf("%w: unknown search %q", ErrInvalidAttributes, search)
	}
	typ := attrs.Get("type")
	if typ != "" && typ != "f" && typ != "d" {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAttributes, typ)
	}

	p := &FileProvider{
		Search: search,
		Type:   typ,
		raw:    attrs,
		build:  mk,
	}
	if table != nil {
		p.Paths = table.Substitute(path)
	} else {
		p.Paths = []string{path}
	}

	for name, dst := range map[string]**regexp.Regexp{
		"regex":       &p.regex,
		"nregex":      &p.nregex,
		"wholeregex":  &p.wholeRegex,
		"nwholeregex": &p.nwholeRegex,
	} {
		expr := attrs.Get(name)
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAttributes, name, err)
		}
		*dst = re
	}
	return p, nil
}

func fileFactory(mk func(string) command.Command) Factory {
	return func(attrs Attributes, table *vars.Table) (Provider, error) {
		return NewFileProvider(attrs, table, mk)
	}
}

// Targets yields the matching paths, expanding environment variables and
// globs on every call.
func (p *FileProvider) Targets() iter.Seq[string] {
	return func(yield func(string) bool) {
		if p.Search == SearchDeep {
			return
		}
		for _, template := range p.Paths {
			for _, base := range expandBase(template) {
				for path := range p.walk(base) {
					if !p.accept(path) {
						continue
					}
					if !yield(path) {
						return
					}
				}
			}
		}
	}
}

func expandBase(template string) []string {
	expanded := envutil.ExpandPath(template)
	if !envutil.HasGlob(expanded) {
		return []string{expanded}
	}
	matches, err := filepath.Glob(expanded)
	if err != nil {
		return nil
	}
	return matches
}

func (p *FileProvider) walk(base string) iter.Seq[string] {
	switch p.Search {
	case SearchWalkFile:
		return fileutil.Children(base, false)
	case SearchWalkAll:
		return fileutil.Children(base, true)
	case SearchWalkTop:
		return func(yield func(string) bool) {
			for c := range fileutil.Children(base, true) {
				if !yield(c) {
					return
				}
			}
			if fileutil.Exists(base) {
				yield(base)
			}
		}
	default:
		// file and glob: the base itself.
		return func(yield func(string) bool) {
			if fileutil.Exists(base) {
				yield(base)
			}
		}
	}
}

func (p *FileProvider) accept(path string) bool {
	name := filepath.Base(path)
	if p.regex != nil && !p.regex.MatchString(name) {
		return false
	}
	if p.nregex != nil && p.nregex.MatchString(name) {
		return false
	}
	if p.wholeRegex != nil && !p.wholeRegex.MatchString(path) {
		return false
	}
	if p.nwholeRegex != nil && p.nwholeRegex.MatchString(path) {
		return false
	}
	switch p.Type {
	case "f":
		info, err := os.Lstat(path)
		return err == nil && !info.IsDir()
	case "d":
		info, err := os.Lstat(path)
		return err == nil && info.IsDir()
	}
	return true
}

func (p *FileProvider) setKey(key string) { p.Key = key }

func (p *FileProvider) Commands() iter.Seq2[command.Command, error] {
	return func(yield func(command.Command, error) bool) {
		for path := range p.Targets() {
			if !yield(p.build(path), nil) {
				return
			}
		}
	}
}

// DeepScan yields one entry per path when the search mode is deep.
func (p *FileProvider) DeepScan() iter.Seq[DeepScanEntry] {
	return func(yield func(DeepScanEntry) bool) {
		if p.Search != SearchDeep {
			return
		}
		key := p.Key
		if key == "" {
			key = "delete"
		}
		for _, template := range p.Paths {
			entry := DeepScanEntry{
				Path:        envutil.ExpandPath(template),
				Regex:       p.raw.Get("regex"),
				NRegex:      p.raw.Get("nregex"),
				WholeRegex:  p.raw.Get("wholeregex"),
				NWholeRegex: p.raw.Get("nwholeregex"),
				Command:     key,
				Build:       p.build,
			}
			if !yield(entry) {
				return
			}
		}
	}
}
