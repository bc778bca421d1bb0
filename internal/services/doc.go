// Package services sits between the HTTP and CLI surfaces and the pure
// analytics functions.
//
// DataService owns the canonical regulation table for the life of the
// process. Every query reads the same immutable table, runs inside an
// OpenTelemetry span, records query metrics and translates analytics errors
// into the sentinels below so the transport layer can map them to HTTP
// statuses:
//
//	ErrInvalidInput          bad field, order, range or too few identifiers
//	ErrFeatureUnavailable    the dataset lacks a required column (FeatureError)
//	ErrComparisonUnavailable comparison without a cost impact column (FeatureError)
//	ErrDatasetUnavailable    no dataset has been loaded
//
// Empty results are never errors. List answers carry Count and Empty.
//
// HealthService reports liveness, readiness (dataset loaded) and version.
package services
