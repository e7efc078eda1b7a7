package resources

import (
	"fmt"
	"strings"

	"airline-ops/airops/internal/apiclient"
	"airline-ops/airops/internal/format"
)

// Kind is the declared value type of a field at the network boundary.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindDate
	KindDateTime
	// KindRef is an integer id pointing at a record of another resource.
	KindRef
)

// Input is the HTML input control used to edit a field.
type Input string

const (
	InputText     Input = "text"
	InputNumber   Input = "number"
	InputDate     Input = "date"
	InputDateTime Input = "datetime-local"
	InputSelect   Input = "select"
	InputTextarea Input = "textarea"
)

// Format selects the display formatter of a table column.
type Format int

const (
	FormatText Format = iota
	FormatStrong
	FormatDate
	FormatDateTime
	// FormatOpenEnded renders a date-time, or "In progress" when missing.
	FormatOpenEnded
	FormatCurrency
	FormatHours
	FormatInteger
	FormatSeats
	FormatStatus
)

// Column is one table column of a list view.
type Column struct {
	Key    string
	Label  string
	Format Format
}

// Option is one choice of a select input.
type Option struct {
	Value string
	Label string
}

// Field is one form field. Exactly one of Options or Source is set for
// select inputs.
type Field struct {
	Key         string
	Label       string
	Input       Input
	Kind        Kind
	Required    bool
	NonNegative bool
	// BlankZero coerces a blank optional number to 0 instead of null.
	BlankZero bool
	// Length, when non-zero, is the exact number of characters required.
	Length    int
	Uppercase bool
	Min, Max  *float64
	Default   string
	Options   []Option
	// Source names the resource type whose collection provides the options.
	Source string
}

// Status is one canonical value of a resource's status enumeration.
type Status struct {
	Value   string
	Label   string
	Class   string
	Aliases []string
}

// Join fills a display column from a record of another resource.
type Join struct {
	Column   string
	Source   string
	LocalKey string
	Field    string
}

// Definition describes one resource type end to end: API paths, list
// columns, form fields, and status enumeration.
type Definition struct {
	Type     string
	Singular string
	Plural   string
	Endpoint string
	IDField  string
	Icon     string

	Columns []Column
	Fields  []Field
	// Extra are read-only text keys the API joins into list responses.
	Extra []string
	Joins []Join

	StatusField string
	Statuses    []Status

	// OptionLabel renders a record of this type as a select option label.
	OptionLabel func(Record) string

	schema  map[string]Kind
	fields  map[string]*Field
	classes map[string]Status
}

// UnknownStatusClass is the badge class for values outside the enumeration.
const UnknownStatusClass = "status-unknown"

func (d *Definition) init() {
	d.schema = map[string]Kind{d.IDField: KindInt}
	d.fields = make(map[string]*Field, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		d.schema[f.Key] = f.Kind
		d.fields[f.Key] = f
	}
	for _, key := range d.Extra {
		if _, ok := d.schema[key]; !ok {
			d.schema[key] = KindText
		}
	}

	// Status tables may be shared between definitions.
	d.Statuses = append([]Status(nil), d.Statuses...)
	d.classes = make(map[string]Status)
	for i := range d.Statuses {
		st := &d.Statuses[i]
		if st.Label == "" {
			st.Label = st.Value
		}
		if st.Class == "" {
			st.Class = "status-" + format.Slug(st.Value)
		}
		d.classes[format.Slug(st.Value)] = *st
		for _, alias := range st.Aliases {
			d.classes[format.Slug(alias)] = *st
		}
	}

	if f, ok := d.fields[d.StatusField]; ok && len(f.Options) == 0 {
		f.Options = d.StatusOptions()
	}
}

// Field returns the form field named key.
func (d *Definition) Field(key string) (*Field, bool) {
	f, ok := d.fields[key]
	return f, ok
}

// CollectionPath is the API path of the collection.
func (d *Definition) CollectionPath() string {
	return d.Endpoint
}

// ItemPath is the API path of one record.
func (d *Definition) ItemPath(id int64) string {
	return apiclient.ItemPath(d.Endpoint, id)
}

// ID extracts the record's id.
func (d *Definition) ID(rec Record) (int64, bool) {
	id, ok := rec[d.IDField].(int64)
	return id, ok
}

// CanonicalStatus maps any known spelling of a status to its canonical value.
func (d *Definition) CanonicalStatus(v string) (string, bool) {
	st, ok := d.classes[format.Slug(v)]
	if !ok {
		return v, false
	}
	return st.Value, true
}

// StatusClass returns the badge class for v. Unknown, empty and non-string
// values map to UnknownStatusClass.
func (d *Definition) StatusClass(v any) string {
	s, ok := v.(string)
	if !ok {
		return UnknownStatusClass
	}
	if st, ok := d.classes[format.Slug(s)]; ok {
		return st.Class
	}
	return UnknownStatusClass
}

// StatusLabel returns the display label for v, or v itself when unknown.
func (d *Definition) StatusLabel(v any) string {
	s := format.Text(v)
	if st, ok := d.classes[format.Slug(s)]; ok {
		return st.Label
	}
	return s
}

// StatusOptions lists the canonical statuses as select options.
func (d *Definition) StatusOptions() []Option {
	opts := make([]Option, 0, len(d.Statuses))
	for _, st := range d.Statuses {
		label := st.Label
		if label == "" {
			label = st.Value
		}
		opts = append(opts, Option{Value: st.Value, Label: label})
	}
	return opts
}

// HasStatus reports whether v is one of the given canonical statuses.
func (d *Definition) HasStatus(v any, canonical ...string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	c, known := d.CanonicalStatus(s)
	if !known {
		return false
	}
	for _, want := range canonical {
		if c == want {
			return true
		}
	}
	return false
}

// Label renders rec for use in a select option or join.
func (d *Definition) Label(rec Record) string {
	if d.OptionLabel != nil {
		if s := strings.TrimSpace(d.OptionLabel(rec)); s != "" {
			return s
		}
	}
	if id, ok := d.ID(rec); ok {
		return fmt.Sprintf("%s #%d", d.Singular, id)
	}
	return format.Placeholder
}

// Cell renders the display value of column c for rec. Status columns are
// rendered separately as badges.
func (d *Definition) Cell(c Column, rec Record) string {
	v := rec[c.Key]
	switch c.Format {
	case FormatDate:
		return format.Date(v)
	case FormatDateTime:
		return format.DateTime(v)
	case FormatOpenEnded:
		if v == nil {
			return "In progress"
		}
		return format.DateTime(v)
	case FormatCurrency:
		return format.Currency(v)
	case FormatHours:
		return format.Hours(v)
	case FormatInteger:
		return format.Integer(v)
	case FormatSeats:
		if v == nil {
			return format.Placeholder
		}
		return format.Integer(v) + " pax"
	case FormatStatus:
		return d.StatusLabel(v)
	default:
		return format.OrPlaceholder(v)
	}
}
