// Package event queues and dispatches input against the element tree.
//
// Events flow through a bounded FIFO ring; a full queue rejects new
// pushes rather than displacing queued work. Dispatch for a targeted
// event runs two phases: capture from the root down to the target,
// then bubble from the target back up, with listeners registered for
// a specific phase. A listener marking the event handled stops all
// further dispatch; preventing the default leaves dispatch running but
// flags the event for the driver.
//
// Keyboard shortcuts register as combo strings ("Ctrl+Shift+S") and
// match key-down events by exact modifier set, so "Ctrl+S" stays quiet
// while Shift is held.
package event
