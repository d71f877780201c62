// Package postgres provides PostgreSQL implementations of the interfaces in
// internal/store, driven through database/sql with the pgx stdlib driver.
// Schema migrations are embedded and applied with goose.
package postgres
