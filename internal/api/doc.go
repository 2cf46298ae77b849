// Package api implements the HTTP handlers of the platform: health and
// welcome probes, user registration and search, login, record intake for
// background spreadsheet export, job status, and artifact download.
//
// Handlers decode and validate requests, call the service layer and translate
// its errors into status codes through MapErrorToStatusCode. Routing is done
// by chi in cmd/server.
package api
