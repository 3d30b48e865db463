// Package apod talks to NASA's Astronomy Picture of the Day API.
//
// Responses are decoded once into the typed Info structure; the media type is
// resolved to an enum at the boundary so callers never inspect raw strings.
// Info.ImageURL picks the best downloadable image for an entry: the HD image
// for pictures and the thumbnail for videos.
//
// The client performs a single attempt per call. Retries and backoff are the
// caller's business.
package apod
