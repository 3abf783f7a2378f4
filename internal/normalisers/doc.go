// Package normalisers provides implementations of the Normaliser interface
// for the document formats a research corpus holds. Each normaliser knows
// how to extract text from specific file extensions.
//
// Normalisers are registered with the Registry at startup.
package normalisers
