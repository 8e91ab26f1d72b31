// Package export writes pipeline output to disk: the full dataset consumed by
// the rendering layer and a slim meme index. Files are replaced atomically.
package export
