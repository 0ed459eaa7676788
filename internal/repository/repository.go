// Package repository contains the PostgreSQL persistence layer. All
// write operations that guard a state-machine transition are expressed
// as conditional statements (match-and-mutate); a zero-row result is
// reported as ErrNotFound and is the only concurrency guard in the
// system.
package repository

import "errors"

// ErrNotFound is returned when a query matches no rows. Callers decide
// whether that means a missing entity or a failed precondition.
var ErrNotFound = errors.New("record not found")
