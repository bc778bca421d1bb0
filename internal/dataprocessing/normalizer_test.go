package dataprocessing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/pkg/contracts/domain"
)

func strPtr(s string) *string { return &s }

func TestConvertCostImpact(t *testing.T) {
	tests := []struct {
		name string
		raw  *string
		want int
	}{
		{"increase", strPtr("Significant increase"), 1},
		{"decrease", strPtr("DECREASE in fees"), -1},
		{"both directions", strPtr("increase then decrease"), 0},
		{"neutral text", strPtr("no change"), 0},
		{"empty", strPtr(""), 0},
		{"missing", nil, 0},
		{"mixed case", strPtr("InCrEaSeD"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertCostImpact(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, []int{-1, 0, 1}, got)
		})
	}
}

func TestConvertCostImpactIsPure(t *testing.T) {
	raw := "Moderate increase"
	first := ConvertCostImpact(&raw)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, ConvertCostImpact(&raw))
	}
	assert.Equal(t, "Moderate increase", raw)
}

func TestResolveHeader(t *testing.T) {
	tests := []struct {
		header string
		want   domain.Field
		ok     bool
	}{
		{"Regulation Name", domain.FieldName, true},
		{"  Country  ", domain.FieldCountry, true},
		{"\ufeffCountry", domain.FieldCountry, true},
		{"regulation   TYPE", domain.FieldRegulationType, true},
		{"Impact on Cost", domain.FieldCostImpactRaw, true},
		{"Cost Impact", domain.FieldCostImpactRaw, true},
		{"Cost Impact Amount", domain.FieldCostImpactAmount, true},
		{"regulationCategory", domain.FieldRegulationCategory, true},
		{"Notes", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := ResolveHeader(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	raw := RawTable{
		Header: []string{" Regulation Name ", "Country", "Year", "Cost Impact", "Notes"},
		Rows: [][]string{
			{"A", "US", "2020", "increase", "x"},
			{"", "", "", "", ""},
			{"B", " US ", "2020.0", "decrease"},
			{"C", "", "unknown"},
			{"D", "FR", ""},
		},
	}

	table := NewNormalizer(nil).Normalize(raw)

	require.Len(t, table.Records, 4)
	assert.Equal(t, []string{"Notes"}, table.Skipped)

	a := table.Records[0]
	assert.Equal(t, 0, a.ID)
	assert.Equal(t, "A", a.Name)
	require.NotNil(t, a.Year)
	assert.Equal(t, 2020, *a.Year)
	assert.Equal(t, 1, a.CostImpactScore)

	b := table.Records[1]
	assert.Equal(t, 1, b.ID, "blank rows do not consume ids")
	assert.Equal(t, "US", b.Country)
	assert.Equal(t, 2020, *b.Year)
	assert.Equal(t, -1, b.CostImpactScore)

	c := table.Records[2]
	assert.Equal(t, "", c.Country)
	require.NotNil(t, c.Year, "unparsable year is coerced, not missing")
	assert.Equal(t, 0, *c.Year)
	assert.Equal(t, 0, c.CostImpactScore)
	assert.Equal(t, 1, table.Coercions[domain.FieldYear])

	assert.Nil(t, table.Records[3].Year)

	assert.True(t, table.Features.Has(domain.FieldCostImpactScore))
	assert.False(t, table.Features.Has(domain.FieldIndustry))
	assert.Equal(t, []domain.Field{
		domain.FieldName,
		domain.FieldCountry,
		domain.FieldYear,
		domain.FieldCostImpactRaw,
		domain.FieldCostImpactScore,
	}, table.Columns())
}

func TestNormalizeWithoutCostImpact(t *testing.T) {
	raw := RawTable{
		Header: []string{"Regulation Name", "Industry"},
		Rows:   [][]string{{"A", "Energy"}},
	}

	table := NewNormalizer(nil).Normalize(raw)

	require.Len(t, table.Records, 1)
	assert.False(t, table.Features.CostImpact())
	assert.False(t, table.Features.Has(domain.FieldCostImpactRaw))
	assert.Equal(t, 0, table.Records[0].CostImpactScore)
}

func TestNormalizeDuplicateColumnKeepsFirst(t *testing.T) {
	raw := RawTable{
		Header: []string{"Cost Impact", "Impact on Cost"},
		Rows:   [][]string{{"increase", "decrease"}},
	}

	table := NewNormalizer(nil).Normalize(raw)

	require.Len(t, table.Records, 1)
	assert.Equal(t, "increase", table.Records[0].CostImpactRaw)
	assert.Equal(t, 1, table.Records[0].CostImpactScore)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1200", 1200, true},
		{"$1,200.50", 1200.5, true},
		{" 3.25 ", 3.25, true},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-infinity", 0, false},
		{"1e400", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeNonFiniteAmounts(t *testing.T) {
	raw := RawTable{
		Header: []string{"Regulation Name", "Industry", "Cost Impact", "Cost Impact Amount"},
		Rows: [][]string{
			{"A", "Energy", "increase", "NaN"},
			{"B", "Energy", "decrease", "Inf"},
			{"C", "Energy", "increase", "$1,000"},
		},
	}

	table := NewNormalizer(nil).Normalize(raw)

	require.Len(t, table.Records, 3)
	assert.Equal(t, 2, table.Coercions[domain.FieldCostImpactAmount])
	for _, r := range table.Records[:2] {
		require.NotNil(t, r.CostImpactAmount, r.Name)
		assert.Zero(t, *r.CostImpactAmount, r.Name)
	}

	_, err := json.Marshal(table.Records)
	assert.NoError(t, err)
}

func TestParseYear(t *testing.T) {
	v, ok := ParseYear("2021")
	assert.True(t, ok)
	assert.Equal(t, 2021, v)

	v, ok = ParseYear("2021.0")
	assert.True(t, ok)
	assert.Equal(t, 2021, v)

	v, ok = ParseYear("2021.5")
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}
