// Package task manages background job queuing, processing, and lifecycle.
// It lets the intake endpoint acknowledge a batch immediately while a worker
// renders the workbook later. Every submitted task runs at most once: tasks
// left unfinished by a previous process are marked failed on startup rather
// than replayed.
package task
