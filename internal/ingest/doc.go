// Package ingest drives one document through the load → check →
// summarize/extract → chunk → enrich → index pipeline (C7-C11), and runs
// that pipeline over a bounded worker pool reporting progress events
// (C17) for the ingest CLI.
package ingest
