// Package auth issues and validates JWT access and password reset tokens and
// hashes passwords with bcrypt.
package auth
