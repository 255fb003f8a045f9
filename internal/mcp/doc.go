// Package mcp exposes the conceptrag tool surface (C14) over the Model
// Context Protocol's stdio transport. Every tool is a pure adapter: parse
// and validate parameters, invoke a domain service (internal/search,
// internal/app), and format the result as a single text content block
// carrying JSON.
package mcp
