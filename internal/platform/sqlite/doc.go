// Package sqlite provides embedded SQLite implementations of the interfaces in
// internal/store, for single-binary deployments and in-process tests. It uses
// the pure-Go modernc.org/sqlite driver through jmoiron/sqlx.
//
// The pool is limited to one connection, so all statements are serialized.
// Code running inside a transaction must use the transaction handle; going
// back to the pool would wait for the connection the transaction holds.
package sqlite
