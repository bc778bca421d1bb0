package analytics

import (
	"cmp"
	"fmt"
	"slices"

	"regpulse/pkg/contracts/domain"
)

// CountByYear counts named records per year. Records with a missing year or
// name are not counted.
func CountByYear(t domain.Table, order domain.YearOrder) []domain.YearCount {
	counts := make(map[int]int)
	for _, r := range t.Records {
		if r.Year == nil || r.Name == "" {
			continue
		}
		counts[*r.Year]++
	}

	out := make([]domain.YearCount, 0, len(counts))
	for year, n := range counts {
		out = append(out, domain.YearCount{Year: year, Count: n})
	}

	slices.SortFunc(out, func(a, b domain.YearCount) int {
		if order == domain.OrderByCount {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Year, b.Year)
	})
	return out
}

// tally holds per-category counts in first-appearance order.
type tally struct {
	labels []string
	counts map[string]*domain.CategoryCount
	total  int
}

func countCategories(t domain.Table, field domain.Field) tally {
	tl := tally{counts: make(map[string]*domain.CategoryCount)}
	for _, r := range t.Records {
		v, ok := r.Text(field)
		if !ok {
			continue
		}
		c, seen := tl.counts[v]
		if !seen {
			c = &domain.CategoryCount{Label: v}
			tl.counts[v] = c
			tl.labels = append(tl.labels, v)
		}
		c.Count++
		c.ScoreSum += r.CostImpactScore
		tl.total++
	}
	return tl
}

func categoryField(t domain.Table, field domain.Field) error {
	if !field.IsText() {
		return fmt.Errorf("%w: %q is not a categorical field", ErrUnsupportedField, field)
	}
	if !t.Features.Has(field) {
		return missingColumn(field)
	}
	return nil
}

func sortCategories(out []domain.CategoryCount) {
	slices.SortFunc(out, func(a, b domain.CategoryCount) int {
		aOthers, bOthers := a.Label == domain.OthersLabel, b.Label == domain.OthersLabel
		switch {
		case aOthers && !bOthers:
			return 1
		case bOthers && !aOthers:
			return -1
		}
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
}

// CountByField counts records per value of a categorical field.
func CountByField(t domain.Table, field domain.Field) ([]domain.CategoryCount, error) {
	if err := categoryField(t, field); err != nil {
		return nil, err
	}

	tl := countCategories(t, field)
	out := make([]domain.CategoryCount, 0, len(tl.labels))
	for _, label := range tl.labels {
		c := *tl.counts[label]
		c.Share = float64(c.Count) / float64(tl.total)
		out = append(out, c)
	}
	sortCategories(out)
	return out, nil
}

// CountByCategory counts records per category and folds every category whose
// share of the total is below domain.OthersThreshold into a single "Others"
// row. Counts and score sums are summed, so the total count is preserved.
// A source category literally named "Others" merges with the bucket.
func CountByCategory(t domain.Table, field domain.Field) ([]domain.CategoryCount, error) {
	if err := categoryField(t, field); err != nil {
		return nil, err
	}

	tl := countCategories(t, field)
	grouped := make(map[string]*domain.CategoryCount)
	var order []string
	for _, label := range tl.labels {
		c := tl.counts[label]
		key := label
		if float64(c.Count)/float64(tl.total) < domain.OthersThreshold {
			key = domain.OthersLabel
		}
		g, ok := grouped[key]
		if !ok {
			g = &domain.CategoryCount{Label: key}
			grouped[key] = g
			order = append(order, key)
		}
		g.Count += c.Count
		g.ScoreSum += c.ScoreSum
	}

	out := make([]domain.CategoryCount, 0, len(order))
	for _, key := range order {
		g := *grouped[key]
		g.Share = float64(g.Count) / float64(tl.total)
		out = append(out, g)
	}
	sortCategories(out)
	return out, nil
}

// CountByCountryYear counts named records per (country, year). Records
// missing either coordinate are skipped.
func CountByCountryYear(t domain.Table) []domain.CountryYearCount {
	type key struct {
		country string
		year    int
	}
	counts := make(map[key]int)
	for _, r := range t.Records {
		if r.Year == nil || r.Country == "" || r.Name == "" {
			continue
		}
		counts[key{r.Country, *r.Year}]++
	}

	out := make([]domain.CountryYearCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.CountryYearCount{Country: k.country, Year: k.year, Count: n})
	}
	slices.SortFunc(out, func(a, b domain.CountryYearCount) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})
	return out
}

// TopByCostImpact returns at most n records ordered by descending cost impact
// score. Records with equal scores keep their table order.
func TopByCostImpact(t domain.Table, n int) ([]domain.Record, error) {
	if !t.Features.CostImpact() {
		return nil, missingColumn(domain.FieldCostImpactRaw)
	}
	if n <= 0 {
		return []domain.Record{}, nil
	}

	sorted := slices.Clone(t.Records)
	slices.SortStableFunc(sorted, func(a, b domain.Record) int {
		return cmp.Compare(b.CostImpactScore, a.CostImpactScore)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	if sorted == nil {
		sorted = []domain.Record{}
	}
	return sorted, nil
}

// AverageByGroup computes the mean of valueField for each value of
// groupField. Records missing either value are excluded and groups with no
// members are omitted. Results are ordered by group.
func AverageByGroup(t domain.Table, groupField, valueField domain.Field) ([]domain.GroupMean, error) {
	if err := categoryField(t, groupField); err != nil {
		return nil, err
	}
	switch valueField {
	case domain.FieldYear, domain.FieldCostImpactScore, domain.FieldCostImpactAmount:
	default:
		return nil, fmt.Errorf("%w: %q is not numeric", ErrUnsupportedField, valueField)
	}
	if !t.Features.Has(valueField) {
		return nil, missingColumn(valueField)
	}

	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[string]*acc)
	for _, r := range t.Records {
		g, ok := r.Text(groupField)
		if !ok {
			continue
		}
		v, ok := r.Number(valueField)
		if !ok {
			continue
		}
		a, seen := groups[g]
		if !seen {
			a = &acc{}
			groups[g] = a
		}
		a.sum += v
		a.n++
	}

	out := make([]domain.GroupMean, 0, len(groups))
	for g, a := range groups {
		out = append(out, domain.GroupMean{Group: g, Mean: a.sum / float64(a.n), Count: a.n})
	}
	slices.SortFunc(out, func(a, b domain.GroupMean) int {
		return cmp.Compare(a.Group, b.Group)
	})
	return out, nil
}

// Summarize computes the headline counters. Regulations counts distinct
// non-missing descriptions.
func Summarize(t domain.Table) domain.Summary {
	distinct := func(f domain.Field) int {
		seen := make(map[string]struct{})
		for _, r := range t.Records {
			if v, ok := r.Text(f); ok {
				seen[v] = struct{}{}
			}
		}
		return len(seen)
	}
	return domain.Summary{
		Records:     t.Len(),
		Industries:  distinct(domain.FieldIndustry),
		Countries:   distinct(domain.FieldCountry),
		Regulations: distinct(domain.FieldDescription),
	}
}
