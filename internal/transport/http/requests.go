package http

import (
	"regpulse/internal/analytics"
	"regpulse/internal/services"
	"regpulse/pkg/contracts/domain"
)

// FilterRequest is the JSON body of every filtered query. Facet keys must be
// categorical columns; an empty or missing body selects the whole table.
type FilterRequest struct {
	Facets map[domain.Field][]string `json:"facets,omitempty" validate:"omitempty,dive,keys,facet,endkeys"`
	Years  *YearRangeRequest         `json:"years,omitempty"`
}

// YearRangeRequest is an inclusive year interval.
type YearRangeRequest struct {
	Min int `json:"min" validate:"gte=0"`
	Max int `json:"max" validate:"gtefield=Min"`
}

// Filter converts the request into the analytics filter.
func (r FilterRequest) Filter() analytics.Filter {
	f := analytics.Filter{}
	if len(r.Facets) > 0 {
		f.Facets = make(analytics.FacetSelections, len(r.Facets))
		for field, values := range r.Facets {
			f.Facets[field] = values
		}
	}
	if r.Years != nil {
		f.Years = &domain.YearRange{Min: r.Years.Min, Max: r.Years.Max}
	}
	return f
}

// AverageRequest asks for the mean of a numeric column per group.
type AverageRequest struct {
	FilterRequest
	GroupBy domain.Field `json:"groupBy" validate:"required,textfield"`
	Value   domain.Field `json:"value" validate:"required,field"`
}

// CompareRequest selects records by name or by id, never both.
type CompareRequest struct {
	Names []string `json:"names,omitempty" validate:"required_without=IDs,excluded_with=IDs,omitempty,dive,required"`
	IDs   []int    `json:"ids,omitempty" validate:"required_without=Names,omitempty,dive,gte=0"`
}

// Input converts the request into the service input.
func (r CompareRequest) Input() services.CompareInput {
	return services.CompareInput{Names: r.Names, IDs: r.IDs}
}
