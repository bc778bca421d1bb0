package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"regpulse/pkg/contracts/domain"
)

// SampleCSV is a small dataset in the source header format.
const SampleCSV = "Regulation Name,Country,Industry,Regulation Type,Regulation Category,Year,Cost Impact,Cost Impact Amount,Description\n" +
	"A,US,Energy,Environmental,Emissions,2020,Significant increase,1500,Carbon reporting rule\n" +
	"B,US,Finance,Financial,Disclosure,2020,Decrease in filing fees,200,Fee schedule update\n" +
	"C,FR,Energy,Environmental,Emissions,2021,,,Carbon reporting rule\n"

// RecordFixture describes a fixture record. Zero values mean missing.
type RecordFixture struct {
	Name, Country, Industry, Type, Category string
	Year                                    int
	CostImpact                              string
	Amount                                  float64
	Description                             string
}

// AllFields is the column set of a fully populated dataset.
var AllFields = []domain.Field{
	domain.FieldName,
	domain.FieldCountry,
	domain.FieldIndustry,
	domain.FieldRegulationType,
	domain.FieldRegulationCategory,
	domain.FieldYear,
	domain.FieldCostImpactRaw,
	domain.FieldCostImpactAmount,
	domain.FieldDescription,
}

// BuildTable assembles a canonical table from fixtures, assigning ids by
// position. score computes the cost impact score from the raw text.
func BuildTable(columns []domain.Field, score func(string) int, fixtures ...RecordFixture) domain.Table {
	features := domain.NewFeatures(columns)
	records := make([]domain.Record, len(fixtures))
	for i, s := range fixtures {
		r := domain.Record{
			ID:                 i,
			Name:               s.Name,
			Country:            s.Country,
			Industry:           s.Industry,
			RegulationType:     s.Type,
			RegulationCategory: s.Category,
			CostImpactRaw:      s.CostImpact,
			Description:        s.Description,
		}
		if s.Year != 0 {
			r.Year = domain.IntPtr(s.Year)
		}
		if s.Amount != 0 {
			r.CostImpactAmount = domain.FloatPtr(s.Amount)
		}
		if features.CostImpact() && score != nil {
			r.CostImpactScore = score(s.CostImpact)
		}
		records[i] = r
	}
	return domain.Table{Records: records, Features: features}
}

// SampleTable is the canonical form of SampleCSV.
func SampleTable(score func(string) int) domain.Table {
	return BuildTable(AllFields, score,
		RecordFixture{Name: "A", Country: "US", Industry: "Energy", Type: "Environmental", Category: "Emissions",
			Year: 2020, CostImpact: "Significant increase", Amount: 1500, Description: "Carbon reporting rule"},
		RecordFixture{Name: "B", Country: "US", Industry: "Finance", Type: "Financial", Category: "Disclosure",
			Year: 2020, CostImpact: "Decrease in filing fees", Amount: 200, Description: "Fee schedule update"},
		RecordFixture{Name: "C", Country: "FR", Industry: "Energy", Type: "Environmental", Category: "Emissions",
			Year: 2021, Description: "Carbon reporting rule"},
	)
}

// TypeCount is the number of fixture records of one regulation type.
type TypeCount struct {
	Type  string
	Count int
}

// TypeMixTable returns records split across regulation types, in the order
// the counts are given.
func TypeMixTable(counts ...TypeCount) domain.Table {
	var fixtures []RecordFixture
	for _, c := range counts {
		for i := 0; i < c.Count; i++ {
			fixtures = append(fixtures, RecordFixture{
				Name:       fmt.Sprintf("%s-%d", c.Type, i),
				Type:       c.Type,
				Year:       2020 + i%3,
				CostImpact: "increase",
			})
		}
	}
	return BuildTable(AllFields, func(string) int { return 1 }, fixtures...)
}

// WriteSampleCSV writes SampleCSV to a temp file and returns its path.
func WriteSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regulations.csv")
	if err := os.WriteFile(path, []byte(SampleCSV), 0o644); err != nil {
		t.Fatalf("write sample dataset: %v", err)
	}
	return path
}
