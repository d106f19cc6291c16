// Package media defines the reference and payload types that flow through a
// Glance run.
//
// A Reference is one submitted input: either a local file captured as bytes
// or a remote URL left for the inference provider to dereference. Encode
// turns a Reference into the provider-facing Payload, classifying it as an
// image or a video and base64-encoding file contents inline. ItemResult is
// the per-reference outcome carried back to the caller.
//
// References are immutable once built; construct them through FromPath or
// Parse so labels and MIME types stay consistent across the pipeline.
package media
