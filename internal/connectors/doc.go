// Package connectors holds the source adapters that feed a corpus build.
// Each subpackage implements driven.SourceAdapter for one kind of origin:
//
//   - localfolder: the configured named folders
//   - remotelibrary: a reference library, mirrored before ingest
//   - adhoc: a single folder named at request time
//
// Scanning and directory validation are shared through the filesystem
// package.
package connectors
