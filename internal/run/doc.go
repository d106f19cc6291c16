// Package run owns the lifecycle of one batch submission run.
//
// Controller is the state machine (idle, running, paused, aborting,
// completed, failed) behind the public pause/resume/stop commands. It is the
// exclusive writer of the ordered result list and the progress value: the
// scheduler reports through narrow sink callbacks and every reader gets a
// snapshot copy. One Controller drives at most one run; build a new one per
// run.
package run
