package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"regpulse/internal/app"
	"regpulse/internal/config"
	"regpulse/internal/infrastructure"
	"regpulse/internal/services"
	"regpulse/internal/validation"
	"regpulse/pkg/contracts"
)

// cli holds the global flags and the lazily loaded dataset.
type cli struct {
	stdout io.Writer
	stderr io.Writer

	file     string
	sheet    string
	format   string
	out      string
	logLevel string

	cfg    *config.Config
	svc    *services.DataService
	logger *slog.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "regctl",
		Short: "Query a regulation dataset",
		Long: `regctl loads a regulation table (CSV, XLSX or a Google Sheets range)
and answers the same queries as the regpulse HTTP API.

The dataset defaults to the REGPULSE_DATASET_* settings; --file overrides them.

Example:
  regctl filter --file regulations.csv --country US --format pretty
  regctl aggregate by-category industry --file regulations.xlsx
  regctl export --file regulations.csv --out filtered.csv --year-min 2020`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.file, "file", "", "dataset file (.csv or .xlsx)")
	pf.StringVar(&c.sheet, "sheet", "", "worksheet name for .xlsx files (default first sheet)")
	pf.StringVar(&c.format, "format", formatJSON, "output format: json, pretty or csv")
	pf.StringVar(&c.out, "out", "", "write output to this file instead of stdout")
	pf.StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(
		c.featuresCmd(),
		c.facetsCmd(),
		c.summaryCmd(),
		c.filterCmd(),
		c.aggregateCmd(),
		c.searchCmd(),
		c.compareCmd(),
		c.exportCmd(),
	)
	return root
}

// service loads the dataset on first use so that help and version never
// touch the filesystem.
func (c *cli) service(ctx context.Context) (*services.DataService, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	switch c.format {
	case formatJSON, formatPretty, formatCSV:
	default:
		return nil, fmt.Errorf("unknown output format %q: must be json, pretty or csv", c.format)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.file != "" {
		cfg.Dataset.Path = c.file
		cfg.Dataset.Format = ""
	}
	if c.sheet != "" {
		cfg.Dataset.Sheet = c.sheet
	}
	cfg.Logging.Level = c.logLevel
	logger := infrastructure.NewLogger(cfg.Logging, c.stderr).With(slog.String("component", "regctl"))

	loader, src, err := app.NewDatasetLoader(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	svc := services.NewDataService(logger, services.WithExportOptions(app.ExportOptions(cfg.Export)))
	if err := svc.Load(ctx, loader, src); err != nil {
		return nil, err
	}

	c.cfg = cfg
	c.svc = svc
	c.logger = logger
	return svc, nil
}

// output opens the destination chosen by --out. The returned func closes it.
func (c *cli) output() (io.Writer, func() error, error) {
	if c.out == "" {
		return c.stdout, func() error { return nil }, nil
	}
	if err := validation.NewFileValidator(c.logger).ValidateOutputFile(c.out); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(c.out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// emit renders v in the selected format.
func (c *cli) emit(v any, tab tabular) (err error) {
	w, closeFn, err := c.output()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()

	p := printer{format: c.format, w: w}
	if c.cfg != nil {
		p.export = app.ExportOptions(c.cfg.Export)
	}
	return p.print(v, tab)
}
