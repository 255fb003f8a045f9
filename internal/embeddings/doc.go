// Package embeddings provides embedding generation via multiple providers.
//
// Supports a deterministic hash-based provider (no model, no network,
// used by default) and FastEmbed (local ONNX models, requires CGO).
// Factory pattern enables provider selection at runtime with automatic
// dimension detection for common FastEmbed models.
package embeddings
