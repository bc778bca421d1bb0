// Package shared holds code used across regpulse packages that belongs to
// no single layer.
//
// The testutil subpackage provides the test helpers every package uses:
//
//   - NewTestLogger returns a slog logger that writes into a buffer so tests
//     can assert on log output.
//   - BuildTable and SampleTable construct normalised regulation tables
//     without going through the loader.
//   - WriteSampleCSV writes the sample dataset to a temporary file for
//     loader, CLI and end-to-end tests.
//
// Nothing here may import a transport or service package.
package shared
