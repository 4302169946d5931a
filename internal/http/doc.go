// Package http exposes the calendar over a JSON API.
//
// Every route except /healthz and /metrics requires an HS256 bearer token
// (Authorization header or the exterminus_token cookie) and passes a casbin
// role check before reaching its handler:
//   - GET /calendar/{year}/{month}: month grid with jobs, time off, locks and
//     holidays keyed by YYYY-MM-DD. GET .../export.xlsx returns the same month
//     as a workbook.
//   - GET /calendar/days/{date}: jobs and time off for one date.
//   - POST /jobs, GET|PUT|DELETE /jobs/{id}, POST /jobs/{id}/move: job
//     lifecycle exchanging the jobDTO payload in job_handler.go. A failed edit
//     answers 422 with the unchanged job.
//   - POST /locks/{date}/toggle: flips the day lock.
//   - POST /timeoff, DELETE /timeoff/{id}: technician time off.
//   - GET /technicians, PUT /users/{id}/role: roster and role changes.
//
// Errors share one body shape, {"error_code","message","errors"}; see
// responder.go for the status mapping.
package http
