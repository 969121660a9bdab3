// Package shell holds the ambient contracts shared by the whole backend:
// logging and metrics interfaces plus the metric names and log attribute
// keys used across the event pipeline and the expiry scheduler.
//
// The interfaces are dependency-free on purpose; adapters for concrete
// backends live in the oteladapters package.
package shell
