package catalog

import (
	"fmt"

	"github.com/goliatone/go-pieshop-admin/optimistic"
)

// pieField binds a persisted column of Pie to its Go field. The table below
// is the single declaration of which columns take part in optimistic edits;
// TestPieFieldsCoverTableColumns keeps it in sync with the bun schema.
type pieField struct {
	column string
	goName string
	ref    func(*Pie) any
}

var pieFields = []pieField{
	{"name", "Name", func(p *Pie) any { return &p.Name }},
	{"price", "Price", func(p *Pie) any { return &p.Price }},
	{"short_description", "ShortDescription", func(p *Pie) any { return &p.ShortDescription }},
	{"long_description", "LongDescription", func(p *Pie) any { return &p.LongDescription }},
	{"allergy_information", "AllergyInformation", func(p *Pie) any { return &p.AllergyInformation }},
	{"image_thumbnail_url", "ImageThumbnailURL", func(p *Pie) any { return &p.ImageThumbnailURL }},
	{"image_url", "ImageURL", func(p *Pie) any { return &p.ImageURL }},
	{"is_pie_of_the_week", "IsPieOfTheWeek", func(p *Pie) any { return &p.IsPieOfTheWeek }},
	{"in_stock", "InStock", func(p *Pie) any { return &p.InStock }},
	{"category_id", "CategoryID", func(p *Pie) any { return &p.CategoryID }},
}

func (f pieField) get(p *Pie) any {
	switch ref := f.ref(p).(type) {
	case *string:
		return *ref
	case *float64:
		return *ref
	case *bool:
		return *ref
	case *int64:
		return *ref
	default:
		panic(fmt.Sprintf("catalog: pie field %q has unsupported type %T", f.column, ref))
	}
}

func (f pieField) set(p *Pie, v any) bool {
	switch ref := f.ref(p).(type) {
	case *string:
		return assign(ref, v)
	case *float64:
		return assign(ref, v)
	case *bool:
		return assign(ref, v)
	case *int64:
		return assign(ref, v)
	default:
		return false
	}
}

func assign[T any](dst *T, v any) bool {
	val, ok := v.(T)
	if ok {
		*dst = val
	}
	return ok
}

var pieFieldsByColumn = func() map[string]pieField {
	m := make(map[string]pieField, len(pieFields))
	for _, f := range pieFields {
		m[f.column] = f
	}
	return m
}()

// PieColumns lists the editable pie columns in declaration order.
func PieColumns() []string {
	cols := make([]string, len(pieFields))
	for i, f := range pieFields {
		cols[i] = f.column
	}
	return cols
}

// PieFieldName maps a pie column to its Go field name.
func PieFieldName(column string) (string, bool) {
	f, ok := pieFieldsByColumn[column]
	return f.goName, ok
}

// Fields returns the editable columns of p keyed by column name.
func (p *Pie) Fields() optimistic.Fields {
	fields := make(optimistic.Fields, len(pieFields))
	for i, f := range pieFields {
		fields[i] = optimistic.Field{Name: f.column, Value: f.get(p)}
	}
	return fields
}

// ApplyFields copies fields onto p. Unknown columns and mistyped values are
// rejected; fields applied before the failing one stay applied.
func (p *Pie) ApplyFields(fields optimistic.Fields) error {
	for _, field := range fields {
		f, ok := pieFieldsByColumn[field.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPieField, field.Name)
		}
		if !f.set(p, field.Value) {
			return fmt.Errorf("catalog: pie field %q: unexpected value type %T", field.Name, field.Value)
		}
	}
	return nil
}

// Record returns p as a versioned record.
func (p *Pie) Record() optimistic.Record[int64] {
	return optimistic.Record[int64]{ID: p.PieID, Fields: p.Fields(), Version: p.RowVersion}
}

// PieFromRecord rebuilds a pie from a versioned record.
func PieFromRecord(r optimistic.Record[int64]) (*Pie, error) {
	p := &Pie{PieID: r.ID, RowVersion: r.Version}
	if err := p.ApplyFields(r.Fields); err != nil {
		return nil, err
	}
	return p, nil
}
