// Package store implements the collaborators.Store persistence contract
// against Postgres (standard deployment profile) and SQLite (lite profile),
// plus an LRU-cached read-through decorator shared by both.
package store

import "errors"

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// ErrCyclicDependency is returned by LinkDependency when the proposed edge
// would create a cycle in the dependency graph.
var ErrCyclicDependency = errors.New("store: dependency link would create a cycle")
