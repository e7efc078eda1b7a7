package resources

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"airline-ops/airops/internal/format"
)

// Record is a normalized entity. Values are only string, int64, float64 or nil.
type Record map[string]any

// Normalize coerces a decoded API object into the declared schema. Keys the
// definition does not declare are dropped. Numbers that do not parse become
// nil; dates are canonicalized to YYYY-MM-DD and date-times to
// YYYY-MM-DDTHH:MM:SS, unparseable date strings are kept verbatim.
func (d *Definition) Normalize(raw map[string]any) Record {
	rec := make(Record, len(d.schema))
	for key, kind := range d.schema {
		v, present := raw[key]
		var out any
		if present {
			out = coerce(kind, v)
		}

		if f, ok := d.fields[key]; ok {
			if out == nil && f.BlankZero {
				out = zero(kind)
			}
			if s, ok := out.(string); ok && f.Uppercase {
				out = strings.ToUpper(s)
			}
		}
		if key == d.StatusField {
			if s, ok := out.(string); ok {
				out, _ = d.CanonicalStatus(s)
			}
		}
		rec[key] = out
	}
	return rec
}

// NormalizeAll normalizes a collection.
func (d *Definition) NormalizeAll(raw []map[string]any) []Record {
	out := make([]Record, 0, len(raw))
	for _, obj := range raw {
		out = append(out, d.Normalize(obj))
	}
	return out
}

// FormValue renders rec[key] as the string an input control expects.
func (d *Definition) FormValue(rec Record, key string) string {
	if rec == nil {
		return ""
	}
	v := rec[key]
	switch d.schema[key] {
	case KindDate:
		return format.ToDateInput(v)
	case KindDateTime:
		return format.ToDateTimeInput(v)
	default:
		return format.Text(v)
	}
}

func coerce(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindInt, KindRef:
		return toInt(v)
	case KindFloat:
		if f, ok := format.Float(v); ok {
			return f
		}
		return nil
	case KindDate:
		return toTime(v, format.DateLayout)
	case KindDateTime:
		return toTime(v, format.DateTimeLayout)
	default:
		switch v.(type) {
		case map[string]any, []any:
			return nil
		}
		return strings.TrimSpace(format.Text(v))
	}
}

func toInt(v any) any {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return i
		}
	}
	f, ok := format.Float(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil
	}
	return int64(f)
}

func toTime(v any, layout string) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, ok := format.ParseTime(s)
	if !ok {
		return s
	}
	return t.Format(layout)
}

func zero(kind Kind) any {
	switch kind {
	case KindInt, KindRef:
		return int64(0)
	case KindFloat:
		return float64(0)
	}
	return nil
}

// Index maps records by id for reference joins.
func (d *Definition) Index(records []Record) map[int64]Record {
	idx := make(map[int64]Record, len(records))
	for _, rec := range records {
		if id, ok := d.ID(rec); ok {
			idx[id] = rec
		}
	}
	return idx
}

// Options builds select options from a collection, labelled by OptionLabel.
func (d *Definition) Options(records []Record) []Option {
	opts := make([]Option, 0, len(records))
	for _, rec := range records {
		id, ok := d.ID(rec)
		if !ok {
			continue
		}
		opts = append(opts, Option{Value: strconv.FormatInt(id, 10), Label: d.Label(rec)})
	}
	return opts
}
