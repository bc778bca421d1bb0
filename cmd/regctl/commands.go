package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"regpulse/internal/analytics"
	"regpulse/internal/services"
	"regpulse/pkg/contracts/domain"
)

// filterFlags are the facet and year range selections shared by the
// query commands.
type filterFlags struct {
	countries  []string
	industries []string
	types      []string
	categories []string
	yearMin    int
	yearMax    int
}

func addFilterFlags(cmd *cobra.Command) *filterFlags {
	f := &filterFlags{}
	fs := cmd.Flags()
	fs.StringSliceVar(&f.countries, "country", nil, "keep records from these countries")
	fs.StringSliceVar(&f.industries, "industry", nil, "keep records in these industries")
	fs.StringSliceVar(&f.types, "type", nil, "keep records of these regulation types")
	fs.StringSliceVar(&f.categories, "category", nil, "keep records in these regulation categories")
	fs.IntVar(&f.yearMin, "year-min", 0, "earliest year, inclusive")
	fs.IntVar(&f.yearMax, "year-max", math.MaxInt32, "latest year, inclusive")
	return f
}

// filter builds the analytics filter. The year range is only set when one
// of its bounds was given.
func (f *filterFlags) filter(cmd *cobra.Command) analytics.Filter {
	out := analytics.Filter{}
	facets := map[domain.Field][]string{
		domain.FieldCountry:            f.countries,
		domain.FieldIndustry:           f.industries,
		domain.FieldRegulationType:     f.types,
		domain.FieldRegulationCategory: f.categories,
	}
	for field, values := range facets {
		if len(values) == 0 {
			continue
		}
		if out.Facets == nil {
			out.Facets = analytics.FacetSelections{}
		}
		out.Facets[field] = values
	}
	if cmd.Flags().Changed("year-min") || cmd.Flags().Changed("year-max") {
		out.Years = &domain.YearRange{Min: f.yearMin, Max: f.yearMax}
	}
	return out
}

func (c *cli) featuresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "features",
		Short: "Show which columns the dataset provides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			info, err := svc.Info(cmd.Context())
			if err != nil {
				return err
			}
			tab := tabular{header: []string{"Field", "Column", "Available"}}
			for _, f := range domain.CanonicalFields {
				tab.rows = append(tab.rows, []string{string(f), f.DisplayName(), strconv.FormatBool(info.Features[f])})
			}
			return c.emit(info, tab)
		},
	}
}

func (c *cli) facetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "facets",
		Short: "List the selectable values of every facet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			facets, err := svc.Facets(cmd.Context())
			if err != nil {
				return err
			}
			tab := tabular{header: []string{"Facet", "Value"}}
			for _, f := range domain.FacetFields {
				for _, v := range facets.Options[f] {
					tab.rows = append(tab.rows, []string{string(f), v})
				}
			}
			if facets.Years != nil {
				tab.rows = append(tab.rows,
					[]string{"yearMin", strconv.Itoa(facets.Years.Min)},
					[]string{"yearMax", strconv.Itoa(facets.Years.Max)})
			}
			return c.emit(facets, tab)
		},
	}
}

func (c *cli) summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show headline counters",
		Args:  cobra.NoArgs,
	}
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		s, err := svc.Summary(cmd.Context(), ff.filter(cmd))
		if err != nil {
			return err
		}
		return c.emit(s, tabular{
			header: []string{"Metric", "Value"},
			rows: [][]string{
				{"records", strconv.Itoa(s.Records)},
				{"regulations", strconv.Itoa(s.Regulations)},
				{"industries", strconv.Itoa(s.Industries)},
				{"countries", strconv.Itoa(s.Countries)},
			},
		})
	}
	return cmd
}

func (c *cli) filterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "List the records matching the facet and year selections",
		Args:  cobra.NoArgs,
	}
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.Records(cmd.Context(), ff.filter(cmd))
		if err != nil {
			return err
		}
		return c.emitRecords(svc, res)
	}
	return cmd
}

func (c *cli) emitRecords(svc *services.DataService, res services.Result[domain.Record]) error {
	full, err := svc.Table()
	if err != nil {
		return err
	}
	return c.emit(res, recordTable(full.Derive(res.Items)))
}

func (c *cli) aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Chart-ready counts, sums and means",
	}
	cmd.AddCommand(
		c.byYearCmd(),
		c.categoryCmd("by-category", "Count records per category, folding small ones into Others", true),
		c.categoryCmd("by-field", "Count records per distinct value of a text field", false),
		c.countryYearCmd(),
		c.topCmd(),
		c.averageCmd(),
	)
	return cmd
}

func (c *cli) byYearCmd() *cobra.Command {
	var order string
	cmd := &cobra.Command{
		Use:   "by-year",
		Short: "Count named regulations per year",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&order, "order", string(domain.OrderByYear), "ordering: year or count")
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.CountByYear(cmd.Context(), ff.filter(cmd), domain.YearOrder(order))
		if err != nil {
			return err
		}
		tab := tabular{header: []string{"Year", "Count"}}
		for _, yc := range res.Items {
			tab.rows = append(tab.rows, []string{strconv.Itoa(yc.Year), strconv.Itoa(yc.Count)})
		}
		return c.emit(res, tab)
	}
	return cmd
}

func (c *cli) categoryCmd(use, short string, folded bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " FIELD",
		Short: short,
		Args:  cobra.ExactArgs(1),
	}
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		field := domain.Field(args[0])
		var res services.Result[domain.CategoryCount]
		if folded {
			res, err = svc.CountByCategory(cmd.Context(), ff.filter(cmd), field)
		} else {
			res, err = svc.CountByField(cmd.Context(), ff.filter(cmd), field)
		}
		if err != nil {
			return err
		}
		tab := tabular{header: []string{"Label", "Count", "Score Sum", "Share"}}
		for _, cc := range res.Items {
			tab.rows = append(tab.rows, []string{
				cc.Label,
				strconv.Itoa(cc.Count),
				strconv.Itoa(cc.ScoreSum),
				strconv.FormatFloat(cc.Share, 'f', 4, 64),
			})
		}
		return c.emit(res, tab)
	}
	return cmd
}

func (c *cli) countryYearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "by-country-year",
		Short: "Count records per country and year",
		Args:  cobra.NoArgs,
	}
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.CountByCountryYear(cmd.Context(), ff.filter(cmd))
		if err != nil {
			return err
		}
		tab := tabular{header: []string{"Country", "Year", "Count"}}
		for _, cy := range res.Items {
			tab.rows = append(tab.rows, []string{cy.Country, strconv.Itoa(cy.Year), strconv.Itoa(cy.Count)})
		}
		return c.emit(res, tab)
	}
	return cmd
}

func (c *cli) topCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the records with the highest cost impact score",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().IntVarP(&n, "n", "n", 10, "number of records")
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.TopByCostImpact(cmd.Context(), ff.filter(cmd), n)
		if err != nil {
			return err
		}
		return c.emitRecords(svc, res)
	}
	return cmd
}

func (c *cli) averageCmd() *cobra.Command {
	var group, value string
	cmd := &cobra.Command{
		Use:   "average",
		Short: "Mean of a numeric field per group",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&group, "group", string(domain.FieldIndustry), "grouping text field")
	cmd.Flags().StringVar(&value, "value", string(domain.FieldCostImpactScore), "numeric field to average")
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.AverageByGroup(cmd.Context(), ff.filter(cmd), domain.Field(group), domain.Field(value))
		if err != nil {
			return err
		}
		tab := tabular{header: []string{"Group", "Mean", "Count"}}
		for _, gm := range res.Items {
			tab.rows = append(tab.rows, []string{gm.Group, strconv.FormatFloat(gm.Mean, 'f', 2, 64), strconv.Itoa(gm.Count)})
		}
		return c.emit(res, tab)
	}
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find records whose text field contains QUERY, ignoring case",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&field, "field", string(domain.FieldName), "text field to search")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		res, err := svc.Search(cmd.Context(), args[0], domain.Field(field))
		if err != nil {
			return err
		}
		return c.emitRecords(svc, res)
	}
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var ids []int
	cmd := &cobra.Command{
		Use:   "compare [NAME...]",
		Short: "Show two or more records side by side",
		Long: `Compare selects records by exact regulation name, or by row id with --ids.

Example:
  regctl compare "Clean Air Act" "Carbon Tax"
  regctl compare --ids 0,4,7`,
	}
	cmd.Flags().IntSliceVar(&ids, "ids", nil, "record ids to compare instead of names")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		cmp, err := svc.Compare(cmd.Context(), services.CompareInput{Names: args, IDs: ids})
		if err != nil {
			return err
		}

		tab := tabular{header: []string{"Field"}}
		for _, row := range cmp.Rows {
			tab.header = append(tab.header, "#"+strconv.Itoa(row.ID))
		}
		for _, f := range cmp.Fields {
			line := []string{f.DisplayName()}
			for _, row := range cmp.Rows {
				line = append(line, cell(row.Values[f]))
			}
			tab.rows = append(tab.rows, line)
		}
		return c.emit(cmp, tab)
	}
	return cmd
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}

func (c *cli) exportCmd() *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered table as CSV or XLSX",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&encoding, "encoding", string(services.ExportCSV), "export encoding: csv or xlsx")
	ff := addFilterFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		svc, err := c.service(cmd.Context())
		if err != nil {
			return err
		}
		exp, err := svc.Export(cmd.Context(), ff.filter(cmd), services.ExportFormat(encoding))
		if err != nil {
			return err
		}

		w, closeFn, err := c.output()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closeFn(); err == nil {
				err = cerr
			}
		}()
		_, err = w.Write(exp.Data)
		return err
	}
	return cmd
}
