// Package mocks provides shared test doubles for the store, auth and task
// interfaces. UserStore is a testify mock; the others use function fields so
// a test overrides only the behaviour it cares about.
package mocks
