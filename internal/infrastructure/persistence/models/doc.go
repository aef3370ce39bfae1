// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from the scheduler and domain types so ORM tags stay
// out of the core packages.
//
// Structure:
// - reconciliation_run.go: history of reconciliation runs
package models
