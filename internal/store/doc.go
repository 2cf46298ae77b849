// Package store defines the persistence contracts used by the services:
// user storage, the shared DBTX abstraction, transaction helpers, and the
// sentinel errors every implementation maps its failures onto.
package store
