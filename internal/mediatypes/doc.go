// Package mediatypes provides shared type definitions and utilities for media
// file handling across memewall.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles.
//
// # Approved Images
//
// Only files whose extension is in ApprovedImageExtensions (jpg, jpeg, png,
// webp; case-insensitive) reach the published dataset:
//
//	if mediatypes.IsApprovedImage(filename) {
//	    // analyze and publish
//	}
//
// # MIME Types
//
// Downloads carry a Content-Type but no reliable filename, so the media
// store derives the local extension with ExtensionForMime:
//
//	ext := mediatypes.ExtensionForMime(resp.Header.Get("Content-Type")) // ".jpg"
//
// GetMimeType goes the other way: the preview server sets Content-Type on
// served media with it, falling back to application/octet-stream.
package mediatypes
