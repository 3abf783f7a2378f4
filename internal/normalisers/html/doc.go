// Package html provides a Normaliser implementation for HTML documents.
// It extracts readable text with a tokenizer, dropping scripts, styles and
// document metadata, and keeps h1-h6 as markdown-style heading lines.
package html
