// Package mediastore keeps the local media directory in sync with the
// spreadsheet: Fetcher downloads each record's Drive file once, and Purger
// deletes files no surviving record references.
package mediastore
