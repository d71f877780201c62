// Package delivery runs outbound message sends off the caller's goroutine.
// Jobs go into a bounded Queue and a Pool of workers hands them to a
// notify.Sender, rate limited and with a per-attempt timeout.
//
// Delivery is best effort. A job that still fails after its last attempt is
// logged and passed to the error handler; nothing is persisted.
package delivery
