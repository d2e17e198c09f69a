// Package sched manages the assistant's time-deferred tasks: timers,
// relative reminders, fixed-time reminders and alarms.
//
// Each scheduled task runs as one background goroutine that sleeps until
// its deadline. Cancellation is cooperative and flag-based: cancelling
// flips the kind's active flag but never wakes the sleeper early; the
// goroutine re-checks the flag at its deadline and skips the fire action
// if it was cancelled. Only process shutdown interrupts a sleeping task.
//
// Activation rules mirror the assistant's behavior: at most one timer and
// one alarm may be active at a time (a second is refused, not queued),
// while all reminders - relative and fixed-time - share a single active
// flag, so cancelling "the" reminder silences every outstanding one.
package sched
