package resources

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"airline-ops/airops/internal/format"
)

// Lister fetches a JSON collection. Satisfied by *apiclient.Client.
type Lister interface {
	List(ctx context.Context, path string) ([]map[string]any, error)
}

// Collections are normalized records keyed by resource type.
type Collections map[string][]Record

// FetchAll loads the collections of defs concurrently. The first failure
// cancels the remaining fetches and is the only error returned; no partial
// result is produced.
func FetchAll(ctx context.Context, lister Lister, defs ...*Definition) (Collections, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	out := make(Collections, len(defs))

	for _, d := range defs {
		d := d
		g.Go(func() error {
			raw, err := lister.List(ctx, d.CollectionPath())
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", d.Type, err)
			}
			records := d.NormalizeAll(raw)

			mu.Lock()
			out[d.Type] = records
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Unique drops repeated definitions, keeping the first occurrence order.
func Unique(defs ...*Definition) []*Definition {
	seen := make(map[string]bool, len(defs))
	out := make([]*Definition, 0, len(defs))
	for _, d := range defs {
		if seen[d.Type] {
			continue
		}
		seen[d.Type] = true
		out = append(out, d)
	}
	return out
}

// JoinSources returns the definitions d's list view joins against.
func (r *Registry) JoinSources(d *Definition) []*Definition {
	var out []*Definition
	for _, j := range d.Joins {
		out = append(out, r.MustGet(j.Source))
	}
	return Unique(out...)
}

// ApplyJoins fills each join column of records from cols. A reference with
// no matching record becomes the "N/A" placeholder.
func (r *Registry) ApplyJoins(d *Definition, records []Record, cols Collections) {
	for _, j := range d.Joins {
		src := r.MustGet(j.Source)
		idx := src.Index(cols[j.Source])
		for _, rec := range records {
			rec[j.Column] = format.Placeholder
			id, ok := rec[j.LocalKey].(int64)
			if !ok {
				continue
			}
			if ref, found := idx[id]; found {
				rec[j.Column] = format.OrPlaceholder(ref[j.Field])
			}
		}
	}
}
