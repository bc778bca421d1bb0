package analytics

import (
	"fmt"

	"regpulse/pkg/contracts/domain"
)

// FacetSelections maps a facet field to the values a record may hold.
// An empty selection leaves that facet unrestricted.
type FacetSelections map[domain.Field][]string

// Filter is a conjunction of facet memberships and an optional year range.
type Filter struct {
	Facets FacetSelections   `json:"facets,omitempty"`
	Years  *domain.YearRange `json:"years,omitempty"`
}

// Validate rejects facets that are not categorical fields and inverted ranges.
func (f Filter) Validate() error {
	for field := range f.Facets {
		if !field.IsFacet() {
			return fmt.Errorf("%w: %q is not a facet", ErrUnsupportedField, field)
		}
	}
	if f.Years != nil && f.Years.Min > f.Years.Max {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, f.Years.Min, f.Years.Max)
	}
	return nil
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	if f.Years != nil {
		return true
	}
	for _, values := range f.Facets {
		if len(values) > 0 {
			return true
		}
	}
	return false
}

// Disabled lists the requested predicates that t cannot evaluate because
// their column is absent. Those predicates are skipped by ApplyFilters.
func (f Filter) Disabled(t domain.Table) []domain.Field {
	var out []domain.Field
	for _, field := range domain.FacetFields {
		if len(f.Facets[field]) > 0 && !t.Features.Has(field) {
			out = append(out, field)
		}
	}
	if f.Years != nil && !t.Features.Has(domain.FieldYear) {
		out = append(out, domain.FieldYear)
	}
	return out
}

// ApplyFilters returns the records of t that satisfy every active predicate,
// in their original order. A record with a missing value fails an active
// facet or year predicate.
func ApplyFilters(t domain.Table, f Filter) domain.Table {
	type facet struct {
		field   domain.Field
		allowed map[string]struct{}
	}

	var facets []facet
	for _, field := range domain.FacetFields {
		values := f.Facets[field]
		if len(values) == 0 || !t.Features.Has(field) {
			continue
		}
		allowed := make(map[string]struct{}, len(values))
		for _, v := range values {
			allowed[v] = struct{}{}
		}
		facets = append(facets, facet{field: field, allowed: allowed})
	}

	years := f.Years
	if years != nil && !t.Features.Has(domain.FieldYear) {
		years = nil
	}

	out := make([]domain.Record, 0, len(t.Records))
	for _, r := range t.Records {
		if years != nil && (r.Year == nil || !years.Contains(*r.Year)) {
			continue
		}
		pass := true
		for _, fc := range facets {
			v, ok := r.Text(fc.field)
			if !ok {
				pass = false
				break
			}
			if _, member := fc.allowed[v]; !member {
				pass = false
				break
			}
		}
		if pass {
			out = append(out, r)
		}
	}
	return t.Derive(out)
}

// FacetOptions returns the distinct non-missing values of field in order of
// first appearance.
func FacetOptions(t domain.Table, field domain.Field) []string {
	out := []string{}
	if !field.IsText() {
		return out
	}
	seen := make(map[string]struct{})
	for _, r := range t.Records {
		v, ok := r.Text(field)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// FullYearRange returns the smallest and largest year present in t.
// The second result is false when no record has a year.
func FullYearRange(t domain.Table) (domain.YearRange, bool) {
	var yr domain.YearRange
	found := false
	for _, r := range t.Records {
		if r.Year == nil {
			continue
		}
		y := *r.Year
		if !found {
			yr = domain.YearRange{Min: y, Max: y}
			found = true
			continue
		}
		if y < yr.Min {
			yr.Min = y
		}
		if y > yr.Max {
			yr.Max = y
		}
	}
	return yr, found
}
