package analytics

import (
	"fmt"
	"strconv"
	"strings"

	"regpulse/pkg/contracts/domain"
)

// ComparisonFields is the fixed projection shown for compared records.
var ComparisonFields = []domain.Field{
	domain.FieldName,
	domain.FieldCountry,
	domain.FieldIndustry,
	domain.FieldRegulationType,
	domain.FieldYear,
	domain.FieldCostImpactScore,
}

// NameIndex maps each non-missing name to the ids carrying it, in table order.
func NameIndex(t domain.Table) map[string][]int {
	idx := make(map[string][]int)
	for _, r := range t.Records {
		if r.Name == "" {
			continue
		}
		idx[r.Name] = append(idx[r.Name], r.ID)
	}
	return idx
}

// Compare projects the records named in names. Names are matched exactly
// and resolved to ids through NameIndex; the projection is then the same
// as CompareIDs. A name shared by several records brings in all of them
// and is reported as ambiguous; names without a match are reported as
// unmatched.
func Compare(t domain.Table, names []string) (domain.Comparison, error) {
	if !t.Features.CostImpact() {
		return domain.Comparison{}, ErrComparisonUnavailable
	}

	distinct := dedupe(names)
	if len(distinct) < 2 {
		return domain.Comparison{}, fmt.Errorf("%w: got %d", ErrTooFewIdentifiers, len(distinct))
	}

	idx := NameIndex(t)
	var ids []int
	var unmatched, ambiguous []string
	for _, name := range distinct {
		matched := idx[name]
		switch len(matched) {
		case 0:
			unmatched = append(unmatched, name)
			continue
		case 1:
		default:
			ambiguous = append(ambiguous, name)
		}
		ids = append(ids, matched...)
	}

	cmp := compareIDs(t, ids)
	cmp.Unmatched = unmatched
	cmp.Ambiguous = ambiguous
	return cmp, nil
}

// CompareIDs projects the records with the given synthetic ids. Unknown
// ids are reported as unmatched.
func CompareIDs(t domain.Table, ids []int) (domain.Comparison, error) {
	if !t.Features.CostImpact() {
		return domain.Comparison{}, ErrComparisonUnavailable
	}

	distinct := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		distinct[id] = struct{}{}
	}
	if len(distinct) < 2 {
		return domain.Comparison{}, fmt.Errorf("%w: got %d", ErrTooFewIdentifiers, len(distinct))
	}

	return compareIDs(t, ids), nil
}

// compareIDs is the shared resolution step of Compare and CompareIDs. The
// identifier count is checked by the callers: names are counted before
// resolution, ids after deduplication.
func compareIDs(t domain.Table, ids []int) domain.Comparison {
	seen := make(map[int]struct{}, len(ids))
	selected := make(map[int]struct{}, len(ids))
	var unmatched []string
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := t.ByID(id); !ok {
			unmatched = append(unmatched, strconv.Itoa(id))
			continue
		}
		selected[id] = struct{}{}
	}

	cmp := project(t, selected)
	cmp.Unmatched = unmatched
	return cmp
}

func project(t domain.Table, selected map[int]struct{}) domain.Comparison {
	fields := make([]domain.Field, 0, len(ComparisonFields))
	for _, f := range ComparisonFields {
		if t.Features.Has(f) {
			fields = append(fields, f)
		}
	}

	rows := make([]domain.ComparisonRow, 0, len(selected))
	for _, r := range t.Records {
		if _, ok := selected[r.ID]; !ok {
			continue
		}
		values := make(map[domain.Field]any, len(fields))
		for _, f := range fields {
			values[f] = r.Value(f)
		}
		rows = append(rows, domain.ComparisonRow{ID: r.ID, Values: values})
	}
	return domain.Comparison{Fields: fields, Rows: rows}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
