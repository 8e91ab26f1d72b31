// Package filesystem retries directory reads and stats that fail with a
// stale NFS file handle (ESTALE). The media directory is often an NFS
// volume shared between the build job and the preview server, and a rebuild
// replacing files can invalidate handles the other side holds.
//
// Any other error is returned immediately.
package filesystem
