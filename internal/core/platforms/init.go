// Package platforms registers the per-platform alias tables with the core
// registry. Import this package to ensure all tables are registered.
package platforms

// Each platform file uses init() to register one table per entity kind.
