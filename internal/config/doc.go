// Package config loads, normalizes, and validates Glance configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GLANCE_API_KEY. The Config type centralizes every knob the CLI and the run
// orchestrator need: API credentials and model selection, batch pacing, log
// output, and optional push notifications.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
