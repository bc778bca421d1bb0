// Package config loads the regpulse configuration.
//
// # Configuration Sources
//
// Sources are applied in the following order, later sources winning:
//
//  1. Default values (Default)
//  2. YAML file (REGPULSE_CONFIG, or regpulse.yaml when present)
//  3. Environment variables, including those loaded from a .env file
//
// # Environment Variables
//
// Variables follow the REGPULSE_<SECTION>_<FIELD> pattern:
//
//	REGPULSE_SERVER_PORT=8080
//	REGPULSE_DATASET_FILE=data/regulations.xlsx
//	REGPULSE_DATASET_SHEET=Regulations
//	REGPULSE_SHEETS_SPREADSHEET_ID=1AbC...
//	REGPULSE_LOGGING_LEVEL=debug
//	REGPULSE_EXPORT_DELIMITER=;
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests should use Default or LoadFile with t.Setenv instead of touching the
// process environment directly.
package config
