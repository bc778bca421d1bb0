package domain

// Features records which canonical fields the loaded dataset provides.
// It is computed once when the table is normalised and shared by every
// table derived from it.
type Features struct {
	fields map[Field]bool
}

// NewFeatures builds the flag set from the columns present in the source.
// The cost impact score is available exactly when the raw column is.
func NewFeatures(columns []Field) Features {
	fields := make(map[Field]bool, len(columns)+1)
	for _, c := range columns {
		fields[c] = true
	}
	if fields[FieldCostImpactRaw] {
		fields[FieldCostImpactScore] = true
	} else {
		delete(fields, FieldCostImpactScore)
	}
	return Features{fields: fields}
}

// Has reports whether f is available.
func (fs Features) Has(f Field) bool {
	return fs.fields[f]
}

// CostImpact reports whether the cost impact views can be shown.
func (fs Features) CostImpact() bool {
	return fs.Has(FieldCostImpactScore)
}

// Fields returns the available fields in canonical order.
func (fs Features) Fields() []Field {
	out := make([]Field, 0, len(fs.fields))
	for _, f := range CanonicalFields {
		if fs.fields[f] {
			out = append(out, f)
		}
	}
	return out
}

// Map returns the flags keyed by field name, including unavailable fields.
func (fs Features) Map() map[Field]bool {
	out := make(map[Field]bool, len(CanonicalFields))
	for _, f := range CanonicalFields {
		out[f] = fs.fields[f]
	}
	return out
}

// Table is an ordered set of records. Record order is display order.
// Tables are treated as immutable values: operations return new tables.
type Table struct {
	Records  []Record
	Features Features

	// Skipped holds source headers that did not map to a canonical field.
	Skipped []string

	// Coercions counts non-empty cells that could not be parsed as numbers,
	// keyed by field.
	Coercions map[Field]int
}

// Len returns the number of records.
func (t Table) Len() int {
	return len(t.Records)
}

// Empty reports whether the table holds no records.
func (t Table) Empty() bool {
	return len(t.Records) == 0
}

// Columns returns the available fields in canonical order.
func (t Table) Columns() []Field {
	return t.Features.Fields()
}

// Derive returns a table holding records and sharing t's features.
func (t Table) Derive(records []Record) Table {
	if records == nil {
		records = []Record{}
	}
	return Table{
		Records:  records,
		Features: t.Features,
		Skipped:  t.Skipped,
	}
}

// ByID returns the record with the given id.
func (t Table) ByID(id int) (Record, bool) {
	// ids are row positions, so the fast path is a direct index
	if id >= 0 && id < len(t.Records) && t.Records[id].ID == id {
		return t.Records[id], true
	}
	for _, r := range t.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}
