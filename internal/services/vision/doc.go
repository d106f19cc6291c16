// Package vision talks to the multimodal chat-completions endpoint.
//
// Client performs one single-turn inference call for one media payload;
// Executor wraps it with the per-item retry policy and converts every
// failure into an error ItemResult so one bad item never aborts a run.
package vision
