package dataprocessing

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"regpulse/pkg/contracts/domain"
)

// RawTable is a header row plus data rows exactly as read from the source.
// Rows may be shorter than the header; missing trailing cells are empty.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// headerAliases maps a folded header to its canonical field. Canonical
// field names are accepted as their own alias.
var headerAliases = map[string]domain.Field{
	"regulation name":     domain.FieldName,
	"name":                domain.FieldName,
	"country":             domain.FieldCountry,
	"industry":            domain.FieldIndustry,
	"regulation type":     domain.FieldRegulationType,
	"regulationtype":      domain.FieldRegulationType,
	"regulation category": domain.FieldRegulationCategory,
	"regulationcategory":  domain.FieldRegulationCategory,
	"year":                domain.FieldYear,
	"cost impact":         domain.FieldCostImpactRaw,
	"impact on cost":      domain.FieldCostImpactRaw,
	"costimpactraw":       domain.FieldCostImpactRaw,
	"cost impact amount":  domain.FieldCostImpactAmount,
	"costimpactamount":    domain.FieldCostImpactAmount,
	"description":         domain.FieldDescription,
}

// Normalizer turns a RawTable into the canonical regulation table.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to slog.Default.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// CleanHeader strips a byte order mark, applies NFC and trims surrounding whitespace.
func CleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.TrimSpace(norm.NFC.String(h))
}

// ResolveHeader maps a source header to its canonical field.
func ResolveHeader(h string) (domain.Field, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(CleanHeader(h)), " "))
	f, ok := headerAliases[key]
	return f, ok
}

// Normalize builds the canonical table. It never fails: unknown columns are
// skipped, unparsable numbers become 0 and absent optional columns switch
// the matching features off.
func (n *Normalizer) Normalize(raw RawTable) domain.Table {
	columns := make(map[domain.Field]int)
	var present []domain.Field
	var skipped []string

	for i, h := range raw.Header {
		f, ok := ResolveHeader(h)
		if !ok {
			if clean := CleanHeader(h); clean != "" {
				skipped = append(skipped, clean)
			}
			continue
		}
		if _, dup := columns[f]; dup {
			n.logger.Warn("duplicate column ignored",
				slog.String("header", CleanHeader(h)),
				slog.String("field", string(f)))
			continue
		}
		columns[f] = i
		present = append(present, f)
	}

	features := domain.NewFeatures(present)
	coercions := make(map[domain.Field]int)
	records := make([]domain.Record, 0, len(raw.Rows))

	for _, row := range raw.Rows {
		if blankRow(row) {
			continue
		}
		cell := func(f domain.Field) string {
			idx, ok := columns[f]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := domain.Record{
			ID:                 len(records),
			Name:               cell(domain.FieldName),
			Country:            cell(domain.FieldCountry),
			Industry:           cell(domain.FieldIndustry),
			RegulationType:     cell(domain.FieldRegulationType),
			RegulationCategory: cell(domain.FieldRegulationCategory),
			CostImpactRaw:      cell(domain.FieldCostImpactRaw),
			Description:        cell(domain.FieldDescription),
		}

		if v := cell(domain.FieldYear); v != "" {
			year, ok := ParseYear(v)
			if !ok {
				coercions[domain.FieldYear]++
			}
			rec.Year = &year
		}
		if v := cell(domain.FieldCostImpactAmount); v != "" {
			amount, ok := ParseAmount(v)
			if !ok {
				coercions[domain.FieldCostImpactAmount]++
			}
			rec.CostImpactAmount = &amount
		}
		if features.CostImpact() {
			rec.CostImpactScore = CostImpactScore(rec.CostImpactRaw)
		}

		records = append(records, rec)
	}

	if len(skipped) > 0 {
		n.logger.Info("unrecognised columns skipped", slog.Any("columns", skipped))
	}
	if !features.CostImpact() {
		n.logger.Warn("cost impact column not found, cost impact views disabled")
	}
	for f, count := range coercions {
		n.logger.Warn("unparsable values coerced to zero",
			slog.String("field", string(f)),
			slog.Int("count", count))
	}
	n.logger.Info("dataset normalised",
		slog.Int("records", len(records)),
		slog.Int("columns", len(present)))

	return domain.Table{
		Records:   records,
		Features:  features,
		Skipped:   skipped,
		Coercions: coercions,
	}
}

// ConvertCostImpact maps free text to a score in {-1, 0, 1}. Text naming
// both directions is treated as neutral. A nil value scores 0.
func ConvertCostImpact(raw *string) int {
	if raw == nil {
		return 0
	}
	s := strings.ToLower(*raw)
	inc := strings.Contains(s, "increase")
	dec := strings.Contains(s, "decrease")
	switch {
	case inc && dec:
		return 0
	case inc:
		return 1
	case dec:
		return -1
	}
	return 0
}

// CostImpactScore is ConvertCostImpact for a plain cell value.
func CostImpactScore(raw string) int {
	return ConvertCostImpact(&raw)
}

// ParseYear parses an integer year. Spreadsheet exports such as "2020.0"
// are accepted. The second result is false when the value was coerced to 0.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f), true
	}
	return 0, false
}

// ParseAmount parses a number that may carry a currency sign and
// thousands separators. NaN and infinities are rejected.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
