// Package service contains the application use cases. It orchestrates the
// policy engine, the stores defined in internal/store and the background task
// runner so that the HTTP layer only translates requests and responses.
//
// Services receive their dependencies through constructor injection and
// return sentinel errors (or errors wrapping them) that the API layer maps to
// status codes with errors.Is.
package service
