// Package preflight provides readiness checks for the filesystem paths and
// external services apod depends on.
//
// The CLI "apod doctor" command runs RunAll and renders each Result. Checks
// never modify the cache; the API check issues one metadata request and
// downloads no image.
package preflight
