// Package app is the composition root for conceptrag (C15).
//
// It wires configuration, logging, the embedding provider, the vector
// store, the stage cache, and the seeding checkpoint into a single App
// value that both binaries (conceptrag-ingest, conceptrag-mcp) build their
// services on top of. Construction order matters: embeddings must exist
// before the store (the store embeds documents on write), and the store's
// four collections must exist before anything reads or writes them.
package app
