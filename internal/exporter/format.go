package exporter

import (
	"strconv"

	"regpulse/pkg/contracts/domain"
)

// formatFloat formats an amount with exactly 2 decimal places so exports are byte-stable
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatCell renders one field of r as export text. Missing values are empty.
func formatCell(r domain.Record, f domain.Field) string {
	if f.IsText() {
		v, _ := r.Text(f)
		return v
	}
	switch f {
	case domain.FieldYear:
		if r.Year == nil {
			return ""
		}
		return formatInt(*r.Year)
	case domain.FieldCostImpactScore:
		return formatInt(r.CostImpactScore)
	case domain.FieldCostImpactAmount:
		if r.CostImpactAmount == nil {
			return ""
		}
		return formatFloat(*r.CostImpactAmount)
	}
	return ""
}

// Headers returns the display headers for the columns of t.
func Headers(t domain.Table) []string {
	cols := t.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.DisplayName()
	}
	return out
}

// Rows renders every record of t in column order.
func Rows(t domain.Table) [][]string {
	cols := t.Columns()
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = formatCell(r, c)
		}
		rows[i] = row
	}
	return rows
}
