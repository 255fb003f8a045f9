// Package checkpoint persists ingestion progress across runs.
//
// A Store tracks which document hashes have already been seeded, which
// pipeline stage is in flight, and the set of files that failed, all in a
// single JSON file at the database path. Writes are atomic (temp file +
// rename) and guarded by an in-process mutex, matching the single-writer
// invariant of the seeding pipeline.
package checkpoint
