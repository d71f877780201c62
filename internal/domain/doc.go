// Package domain contains the core entities of the task tracker: users,
// tasks and the notifications recorded against them. It has no dependencies
// on storage or transport.
package domain
