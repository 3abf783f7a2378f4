// Package file provides the file-backed configuration adapter.
//
// ConfigStore reads and writes ~/.folio/config.toml. Nested TOML tables
// are flattened to dot-notation keys ("chunking.size"). Resolve turns a
// store plus environment overrides into a validated domain.Config.
package file
