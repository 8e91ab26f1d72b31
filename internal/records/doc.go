// Package records defines the typed stages a spreadsheet row moves through
// (Raw, Normalized, Resolved, Meme) and the pure transforms between the first
// two.
//
// Rows without a timestamp or without a Google Drive id in the upload link are
// dropped by Normalize. Dropping is not an error; callers only see a shorter
// slice. A timestamp in an unknown format keeps its row, undated.
package records
