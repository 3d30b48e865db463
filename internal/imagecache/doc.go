// Package imagecache stores APOD images on disk exactly once per distinct
// content and keeps a SQLite index of what has been stored.
//
// Identity is defined by the SHA-256 digest of the downloaded bytes, never by
// the date or URL used to request them. Service.EnsureCached runs the whole
// pipeline synchronously: fetch, hash, look up the digest, and only on a miss
// write the file and insert the index row. The insert is the final step, so a
// failure anywhere leaves no visible record.
//
// The index keeps the original single-table layout
//
//	apod(id INTEGER PRIMARY KEY, title, explanation, file_path, sha256)
//
// and adds a unique index on sha256 when existing data allows it, which turns
// a concurrent miss-then-insert race into ErrDuplicateHash that the service
// resolves to the winning record.
package imagecache
