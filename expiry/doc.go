// Package expiry implements the background reconciliation of expired
// reservations. The scheduler acquires fresh dependencies per sweep,
// isolates failures per reservation, and honors cancellation between
// sweeps and during the inter-sweep sleep. This is a shell-layer component
// in Hexagonal terms: it drives pure core operations through short-lived
// storage handles.
package expiry
