// Package config loads, normalizes, and validates apod configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// APOD_API_KEY. The Config type centralizes every knob the CLI and cache need
// so the image directory, index database, and remote API settings are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
