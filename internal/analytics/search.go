package analytics

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"regpulse/pkg/contracts/domain"
)

// Search returns the records whose field contains query, ignoring case.
// Unicode case folding is used, so "ÉCOLE" matches "école". Missing values
// never match and a blank query matches nothing. An empty field searches by name.
func Search(t domain.Table, query string, field domain.Field) (domain.Table, error) {
	if field == "" {
		field = domain.FieldName
	}
	if !field.IsText() {
		return domain.Table{}, fmt.Errorf("%w: %q is not a text field", ErrUnsupportedField, field)
	}
	if !t.Features.Has(field) {
		return domain.Table{}, missingColumn(field)
	}
	if strings.TrimSpace(query) == "" {
		return t.Derive(nil), nil
	}

	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]domain.Record, 0)
	for _, r := range t.Records {
		v, ok := r.Text(field)
		if !ok {
			continue
		}
		if strings.Contains(fold.String(v), needle) {
			out = append(out, r)
		}
	}
	return t.Derive(out), nil
}

// First returns the first record of t, for single-record detail views.
func First(t domain.Table) (domain.Record, bool) {
	if len(t.Records) == 0 {
		return domain.Record{}, false
	}
	return t.Records[0], true
}
