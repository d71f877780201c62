// Package store defines the persistence contracts for users, tasks and
// notifications. Implementations live under internal/platform (postgres and
// sqlite); services and the reminder engine depend only on these interfaces.
package store
