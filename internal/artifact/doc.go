// Package artifact implements the file store that background jobs write their
// output into and that the retrieval endpoint reads from.
//
// Writes are staged in a hidden directory under the root and renamed into
// place once complete, so a reader observes either "not found" or the whole
// file, never a partial one.
package artifact
