package domain

// Field names a canonical column of the regulation table.
type Field string

const (
	FieldName               Field = "name"
	FieldCountry            Field = "country"
	FieldIndustry           Field = "industry"
	FieldRegulationType     Field = "regulationType"
	FieldRegulationCategory Field = "regulationCategory"
	FieldYear               Field = "year"
	FieldCostImpactRaw      Field = "costImpactRaw"
	FieldCostImpactScore    Field = "costImpactScore"
	FieldCostImpactAmount   Field = "costImpactAmount"
	FieldDescription        Field = "description"
)

// CanonicalFields lists every field in display order. Exports and
// column listings follow this order.
var CanonicalFields = []Field{
	FieldName,
	FieldCountry,
	FieldIndustry,
	FieldRegulationType,
	FieldRegulationCategory,
	FieldYear,
	FieldCostImpactRaw,
	FieldCostImpactScore,
	FieldCostImpactAmount,
	FieldDescription,
}

// FacetFields are the categorical fields a filter may restrict.
var FacetFields = []Field{
	FieldCountry,
	FieldIndustry,
	FieldRegulationType,
	FieldRegulationCategory,
}

var displayNames = map[Field]string{
	FieldName:               "Regulation Name",
	FieldCountry:            "Country",
	FieldIndustry:           "Industry",
	FieldRegulationType:     "Regulation Type",
	FieldRegulationCategory: "Regulation Category",
	FieldYear:               "Year",
	FieldCostImpactRaw:      "Cost Impact",
	FieldCostImpactScore:    "Cost Impact Score",
	FieldCostImpactAmount:   "Cost Impact Amount",
	FieldDescription:        "Description",
}

// DisplayName returns the human-facing column header for f.
func (f Field) DisplayName() string {
	if name, ok := displayNames[f]; ok {
		return name
	}
	return string(f)
}

// Valid reports whether f is one of the canonical fields.
func (f Field) Valid() bool {
	_, ok := displayNames[f]
	return ok
}

// IsFacet reports whether f can be used as a filter facet.
func (f Field) IsFacet() bool {
	for _, facet := range FacetFields {
		if f == facet {
			return true
		}
	}
	return false
}

// IsText reports whether f holds free or categorical text.
func (f Field) IsText() bool {
	switch f {
	case FieldName, FieldCountry, FieldIndustry, FieldRegulationType,
		FieldRegulationCategory, FieldCostImpactRaw, FieldDescription:
		return true
	}
	return false
}

// Record is one regulatory item after normalisation. Empty strings and nil
// pointers mean the source cell was missing.
type Record struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name,omitempty"`
	Country            string   `json:"country,omitempty"`
	Industry           string   `json:"industry,omitempty"`
	RegulationType     string   `json:"regulationType,omitempty"`
	RegulationCategory string   `json:"regulationCategory,omitempty"`
	Year               *int     `json:"year,omitempty"`
	CostImpactRaw      string   `json:"costImpactRaw,omitempty"`
	CostImpactScore    int      `json:"costImpactScore"`
	CostImpactAmount   *float64 `json:"costImpactAmount,omitempty"`
	Description        string   `json:"description,omitempty"`
}

// Text returns the value of a text field and whether it is present.
func (r Record) Text(f Field) (string, bool) {
	var v string
	switch f {
	case FieldName:
		v = r.Name
	case FieldCountry:
		v = r.Country
	case FieldIndustry:
		v = r.Industry
	case FieldRegulationType:
		v = r.RegulationType
	case FieldRegulationCategory:
		v = r.RegulationCategory
	case FieldCostImpactRaw:
		v = r.CostImpactRaw
	case FieldDescription:
		v = r.Description
	default:
		return "", false
	}
	return v, v != ""
}

// Number returns the value of a numeric field and whether it is present.
func (r Record) Number(f Field) (float64, bool) {
	switch f {
	case FieldYear:
		if r.Year == nil {
			return 0, false
		}
		return float64(*r.Year), true
	case FieldCostImpactScore:
		return float64(r.CostImpactScore), true
	case FieldCostImpactAmount:
		if r.CostImpactAmount == nil {
			return 0, false
		}
		return *r.CostImpactAmount, true
	}
	return 0, false
}

// Value returns the field value as a JSON friendly scalar, or nil when missing.
func (r Record) Value(f Field) any {
	if f.IsText() {
		if v, ok := r.Text(f); ok {
			return v
		}
		return nil
	}
	switch f {
	case FieldYear:
		if r.Year == nil {
			return nil
		}
		return *r.Year
	case FieldCostImpactScore:
		return r.CostImpactScore
	case FieldCostImpactAmount:
		if r.CostImpactAmount == nil {
			return nil
		}
		return *r.CostImpactAmount
	}
	return nil
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 {
	return &v
}
