// Package database provides keyed connection factories over bun, units of
// work, SQL error classification, logging and command hooks.
package database
