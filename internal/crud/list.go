package crud

import (
	"context"
	"html/template"

	"airline-ops/airops/internal/format"
	"airline-ops/airops/internal/resources"
)

// ListView is the table of one resource.
type ListView struct {
	Definition *resources.Definition
	Columns    []resources.Column
	Rows       []Row
}

// Row is one table row with its edit and delete actions.
type Row struct {
	ID    int64
	HasID bool
	Cells []Cell
}

// Cell is one rendered table cell.
type Cell struct {
	Text   string
	Strong bool
	Badge  template.HTML
}

// List fetches a resource's collection, and any collection its columns
// join against, and renders the table rows. Errors leave rendering to the
// caller, which keeps the previous table in place.
func (c *Controller) List(ctx context.Context, resourceType string) (*ListView, error) {
	d, err := c.registry.Get(resourceType)
	if err != nil {
		return nil, err
	}

	defs := resources.Unique(append([]*resources.Definition{d}, c.registry.JoinSources(d)...)...)
	cols, err := resources.FetchAll(ctx, c.api, defs...)
	if err != nil {
		return nil, err
	}

	records := cols[d.Type]
	c.registry.ApplyJoins(d, records, cols)

	view := &ListView{
		Definition: d,
		Columns:    d.Columns,
		Rows:       make([]Row, 0, len(records)),
	}
	for _, rec := range records {
		view.Rows = append(view.Rows, renderRow(d, rec))
	}
	return view, nil
}

func renderRow(d *resources.Definition, rec resources.Record) Row {
	row := Row{Cells: make([]Cell, 0, len(d.Columns))}
	row.ID, row.HasID = d.ID(rec)

	for _, col := range d.Columns {
		cell := Cell{Text: d.Cell(col, rec), Strong: col.Format == resources.FormatStrong}
		if col.Format == resources.FormatStatus {
			cell.Badge = format.Badge(d.StatusLabel(rec[col.Key]), d.StatusClass(rec[col.Key]))
		}
		row.Cells = append(row.Cells, cell)
	}
	return row
}
