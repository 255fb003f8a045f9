// Package loader implements the document loader (C7): a recursive walk of
// a files directory that extracts per-page text from PDF and EPUB files,
// falling back to an external OCR command when native extraction yields
// too little text to be useful.
package loader
