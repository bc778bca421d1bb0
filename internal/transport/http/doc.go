// Package http implements the JSON query API consumed by the dashboard
// front end. Handlers are thin: they decode and validate the request, call
// the data service and render the result or an RFC 7807 problem.
//
// # Routes
//
// DataHandler.Routes is mounted at /api/data:
//
//	GET  /features                        dataset columns and feature flags
//	GET  /facets                          facet options and the full year range
//	GET  /summary                         headline counters (POST accepts a filter)
//	POST /records                         filtered records
//	POST /aggregates/by-year?order=       counts per year
//	POST /aggregates/by-category/{field}  category shares with an Others bucket
//	POST /aggregates/by-field/{field}     raw counts per value
//	POST /aggregates/by-country-year      counts per country and year
//	POST /aggregates/top-cost-impact?n=   highest cost impact records
//	POST /aggregates/average              mean of a numeric column per group
//	GET  /search?q=&field=                case-insensitive substring search
//	POST /compare                         side-by-side projection by name or id
//	POST /export?format=csv|xlsx          filtered download
//
// HealthHandler.Routes is mounted at /api/health.
//
// # Errors
//
// Service errors are mapped before reaching the error handler:
//
//	services.ErrInvalidInput          400
//	services.FeatureError             422 with a "feature" extension
//	services.ErrDatasetUnavailable    503
//
// Every list response carries "count" and "empty" so the client can render
// a no-data state instead of an empty chart.
package http
