package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"regpulse/internal/exporter"
	"regpulse/pkg/contracts/domain"
)

const (
	formatJSON   = "json"
	formatPretty = "pretty"
	formatCSV    = "csv"
)

// tabular is the row view of a result. When records is set, csv output
// goes through the exporter so it matches the HTTP download byte for byte.
type tabular struct {
	header  []string
	rows    [][]string
	records *domain.Table
}

func recordTable(t domain.Table) tabular {
	return tabular{header: exporter.Headers(t), rows: exporter.Rows(t), records: &t}
}

type printer struct {
	format string
	w      io.Writer
	export exporter.WriteOptions
}

func (p printer) print(v any, tab tabular) error {
	switch p.format {
	case formatPretty:
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(tab.header...).
			Rows(tab.rows...)
		_, err := fmt.Fprintln(p.w, t.Render())
		return err
	case formatCSV:
		if tab.records != nil {
			return exporter.WriteCSV(p.w, *tab.records, p.export)
		}
		cw := csv.NewWriter(p.w)
		if p.export.Delimiter != 0 {
			cw.Comma = p.export.Delimiter
		}
		if err := cw.Write(tab.header); err != nil {
			return err
		}
		if err := cw.WriteAll(tab.rows); err != nil {
			return err
		}
		return cw.Error()
	default:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
