// Package llm provides the chat-completion client used to summarize
// document content and extract concept metadata during ingestion.
//
// Transport targets any OpenAI-compatible /chat/completions endpoint
// (OpenAI, OpenRouter, or a local model server), wrapped with retry,
// rate limiting, and a typed error taxonomy. Prompts live in external
// text files with a {CONTENT} placeholder; the client treats them as
// opaque strings and reloads them on change.
package llm
