// Package pipeline runs the meme wall ETL in one sequential batch pass:
//
//  1. fetch spreadsheet rows
//  2. normalize them, dropping rows without a timestamp or Drive ID
//  3. sort newest first (stable)
//  4. fetch each record's media into the media directory
//  5. purge media files no resolved record references
//  6. keep only records with an approved image extension
//  7. analyze each image (aspect ratio, responsive variants)
//  8. aggregate facets
//
// The purge in step 5 runs before the image filter, so non-image media of
// live records stays on disk. Every external collaborator is an interface
// in Dependencies; any error aborts the run.
package pipeline
