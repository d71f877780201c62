// Package reminder implements the reminder scheduling engine.
//
// A Scheduler ticks on a fixed interval. Each tick asks the Scanner for
// unreminded tasks due within LeadWindow (or already overdue) and hands them
// to the Dispatcher, which records the reminder and marks the task in one
// store transaction before queueing the outbound message for delivery.
// The store is the only state shared between ticks.
package reminder
