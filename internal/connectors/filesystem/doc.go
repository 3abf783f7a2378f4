// Package filesystem provides the local directory primitives shared by the
// source adapters: directory validation, recursive scanning with hidden
// file and glob exclusion, and change watching with fsnotify.
package filesystem
