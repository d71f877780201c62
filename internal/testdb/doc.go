// Package testdb provides database fixtures for tests: a migrated, throwaway
// SQLite database for unit tests and a migrated PostgreSQL connection (with
// transaction-per-test isolation) for integration tests.
package testdb
