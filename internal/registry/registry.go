// Package registry holds the id to cleaner map rebuilt by each load pass.
//
// A Registry is not synchronized: Reload must not run concurrently with
// lookups, and callers serialize the two.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/lakshaymaurya-felt/cleanml/internal/cleaner"
	"github.com/lakshaymaurya-felt/cleanml/internal/logging"
)

// Source produces cleaners for one load pass. Every call must construct
// fresh cleaners.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]*cleaner.Cleaner, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	Label string
	Fn    func(ctx context.Context) ([]*cleaner.Cleaner, error)
}

func (s SourceFunc) Name() string { return s.Label }

func (s SourceFunc) Load(ctx context.Context) ([]*cleaner.Cleaner, error) {
	return s.Fn(ctx)
}

// Static returns a source that builds its cleaners with fns on every load.
func Static(name string, fns ...func() *cleaner.Cleaner) Source {
	return SourceFunc{Label: name, Fn: func(context.Context) ([]*cleaner.Cleaner, error) {
		out := make([]*cleaner.Cleaner, 0, len(fns))
		for _, fn := range fns {
			out = append(out, fn())
		}
		return out, nil
	}}
}

// Registry maps cleaner ids to cleaners.
type Registry struct {
	sources  []Source
	cleaners map[string]*cleaner.Cleaner
}

// New returns an empty registry that loads from sources in order; earlier
// sources win on duplicate ids.
func New(sources ...Source) *Registry {
	return &Registry{
		sources:  sources,
		cleaners: make(map[string]*cleaner.Cleaner),
	}
}

// Clear removes every cleaner.
func (r *Registry) Clear() {
	clear(r.cleaners)
}

// Reload clears the registry and repopulates it from every source. A
// failing source is logged and skipped; cancellation of ctx aborts the
// pass and returns its error.
func (r *Registry) Reload(ctx context.Context) error {
	logger := logging.GetLogger("registry")
	done := logging.LogOperationStart(logger, "reload")
	defer done()

	r.Clear()
	for _, src := range r.sources {
		cleaners, err := src.Load(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("loading %s: %w", src.Name(), ctxErr)
		}
		if err != nil {
			logger.Error().Err(err).Str("source", src.Name()).Msg("Cleaner source failed")
		}
		for _, c := range cleaners {
			r.add(c, src.Name())
		}
	}
	logger.Debug().Int("cleaners", len(r.cleaners)).Msg("Registry loaded")
	return nil
}

func (r *Registry) add(c *cleaner.Cleaner, source string) {
	logger := logging.GetLogger("registry")
	if c == nil || !c.IsUsable() {
		return
	}
	if _, exists := r.cleaners[c.ID]; exists {
		logger.Warn().Str("cleaner", c.ID).Str("source", source).Msg("Ignoring duplicate cleaner id")
		return
	}
	r.cleaners[c.ID] = c
}

// Lookup returns the cleaner registered under id.
func (r *Registry) Lookup(id string) (*cleaner.Cleaner, bool) {
	c, ok := r.cleaners[id]
	return c, ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.cleaners))
	for id := range r.cleaners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns the registered cleaners sorted by id.
func (r *Registry) All() []*cleaner.Cleaner {
	ids := r.IDs()
	out := make([]*cleaner.Cleaner, len(ids))
	for i, id := range ids {
		out[i] = r.cleaners[id]
	}
	return out
}

// Len returns the number of registered cleaners.
func (r *Registry) Len() int {
	return len(r.cleaners)
}
