// Package progress implements the ingest CLI's progress display (C17):
// a multi-line TTY dashboard when attached to a terminal, and a
// single-line percentage bar otherwise. Both modes read from the same
// event channel the ingest worker pool feeds; reporting an event never
// blocks a worker.
package progress
