// Package config loads, normalizes, and validates kiteready configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// KITE_EMAIL and KITE_API_URL. The Config type centralizes every knob the
// readiness controller, the engine adapter, and the CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
