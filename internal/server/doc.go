// Package server previews a built meme wall over HTTP.
//
// It serves the dataset written by the build command as JSON, a filtered
// and searchable view of the memes, the media and image variant
// directories, and operational endpoints (/healthz, /livez, /version and
// optionally /metrics). The dataset file is re-read when its modification
// time changes.
package server
