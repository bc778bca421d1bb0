// Package dataprocessing loads the regulation dataset and normalises it into
// the canonical table consumed by the analytics package.
//
// # Architecture
//
// The package has two layers:
//
//  1. Sources: CSV, XLSX (excelize) and Google Sheets readers that produce a
//     RawTable. Local files are checked by the validation package first.
//  2. Normalizer: header resolution, type coercion and cost impact scoring
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger, nil)
//	table, err := loader.Load(ctx, dataprocessing.Source{Path: "regulations.csv"})
//	if err != nil {
//	    return err
//	}
//
// # Data Flow
//
//	CSV / XLSX / Sheets → RawTable → Normalizer → domain.Table
//
// # Error Handling
//
// Only an unreadable source is an error. Values that cannot be parsed are
// coerced (numbers become 0, empty cells become missing) and counted in
// Table.Coercions. Absent optional columns switch features off instead of
// failing the load.
package dataprocessing
