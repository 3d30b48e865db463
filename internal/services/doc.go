// Package services defines shared utilities consumed by the cache pipeline
// and its external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and the APOD date
//     being processed for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     fetch, storage, and file failures with errors.Is instead of string
//     matching.
//
// Use these helpers when wiring new components so failure reporting stays
// uniform between the CLI and the cache.
package services
