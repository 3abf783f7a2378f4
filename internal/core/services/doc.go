// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The Orchestrator sequences source adapters into a Corpus; the Manager
// owns corpora on disk and guards them with a LockRegistry.
package services
