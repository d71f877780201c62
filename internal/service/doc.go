// Package service provides application-level services for tasks, their
// notification history and user accounts. Services enforce ownership and
// run multi-step store operations in transactions.
package service
