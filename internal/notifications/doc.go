// Package notifications delivers optional run lifecycle pushes via ntfy.
//
// When no topic is configured a no-op service is returned, so callers never
// branch on whether notifications are enabled. Delivery failures are
// reported to the caller but never affect run state.
package notifications
