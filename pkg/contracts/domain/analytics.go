package domain

// YearOrder selects the ordering of a per-year count series.
type YearOrder string

const (
	// OrderByYear sorts ascending by year, for trend charts.
	OrderByYear YearOrder = "year"
	// OrderByCount sorts descending by count with ties broken by year, for top-N bars.
	OrderByCount YearOrder = "count"
)

// OthersLabel is the bucket for categories below the share threshold.
const OthersLabel = "Others"

// OthersThreshold is the share below which a category is folded into OthersLabel.
const OthersThreshold = 0.02

// YearCount is the number of named regulations in a year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// CategoryCount is the size of one category slice. ScoreSum is the summed
// cost impact score of its members and is zero when cost impact is unavailable.
type CategoryCount struct {
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	ScoreSum int     `json:"scoreSum"`
	Share    float64 `json:"share"`
}

// CountryYearCount is one cell of the country by year series.
type CountryYearCount struct {
	Country string `json:"country"`
	Year    int    `json:"year"`
	Count   int    `json:"count"`
}

// GroupMean is the mean of a numeric field over one group.
type GroupMean struct {
	Group string  `json:"group"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Summary holds the headline counters of a table.
type Summary struct {
	Records     int `json:"records"`
	Industries  int `json:"industries"`
	Countries   int `json:"countries"`
	Regulations int `json:"regulations"`
}

// YearRange is an inclusive year interval.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether year lies within the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// Comparison is an aligned projection of two or more records.
type Comparison struct {
	Fields    []Field         `json:"fields"`
	Rows      []ComparisonRow `json:"rows"`
	Unmatched []string        `json:"unmatched,omitempty"`
	Ambiguous []string        `json:"ambiguous,omitempty"`
}

// ComparisonRow is one compared record restricted to the projected fields.
type ComparisonRow struct {
	ID     int           `json:"id"`
	Values map[Field]any `json:"values"`
}
