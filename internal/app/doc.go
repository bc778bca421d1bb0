// Package app wires the regpulse HTTP server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML file, .env, environment)
//  2. Initialize logging and OpenTelemetry providers
//  3. Build the dataset loader for the configured source (CSV, XLSX or Sheets)
//  4. Create the data and health services
//  5. Set up middleware and HTTP handlers on a chi router
//  6. Load the dataset; a failure here is fatal
//  7. Serve until the context is cancelled, then shut down gracefully
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	a, err := app.NewApplication(ctx, cfg, nil)
//	if err != nil {
//	    return err
//	}
//	return a.Run()
//
// Run installs SIGINT and SIGTERM handlers. Serve takes an explicit context
// for callers that manage signals themselves.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
