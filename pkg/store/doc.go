// Package store provides user persistence. The SQL implementation works
// against SQLite and PostgreSQL; the in-memory implementation backs tests.
package store
