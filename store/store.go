// Package store defines the aggregate persistence interface. Each subsystem
// (role, membership, rule, inherit, token, audit) defines its own store
// interface. The composite Store composes them all.
// Backends: Postgres, SQLite, Mongo, and Memory.
package store

import (
	"context"

	"github.com/xraph/gatehouse/audit"
	"github.com/xraph/gatehouse/inherit"
	"github.com/xraph/gatehouse/membership"
	"github.com/xraph/gatehouse/role"
	"github.com/xraph/gatehouse/rule"
	"github.com/xraph/gatehouse/token"
)

// Store is the aggregate persistence interface.
// Each subsystem store is a composable interface; a single backend
// (postgres, sqlite, mongo, memory) implements all of them.
type Store interface {
	role.Store
	membership.Store
	rule.Store
	inherit.Store
	token.Registry
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
