//go:build integration

// Package testdb opens the integration test database, applies the embedded
// migrations once per process, and isolates each test in a rolled-back
// transaction.
package testdb
