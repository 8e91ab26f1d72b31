package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"memewall/internal/logging"
)

// Retry outcomes passed to Observer.ObserveRetry.
const (
	OutcomeRecovered = "recovered"
	OutcomeFailed    = "failed"
)

// Observer records retried operations. The metrics package implements it.
type Observer interface {
	// ObserveRetry is called once per operation that hit at least one
	// stale handle, with OutcomeRecovered or OutcomeFailed.
	ObserveRetry(operation, outcome string)
}

var defaultObserver Observer

// SetObserver sets the package-level observer. Call it once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

// RetryConfig configures retry behaviour for stale NFS file handles.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the retry settings used by the media store and
// the preview server.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// IsStale reports whether err is an ESTALE (stale NFS file handle) error.
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// StatWithRetry is os.Stat retried on stale handles.
func StatWithRetry(path string, cfg RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, cfg, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// ReadDirWithRetry is os.ReadDir retried on stale handles.
func ReadDirWithRetry(path string, cfg RetryConfig) ([]os.DirEntry, error) {
	return withRetry("readdir", path, cfg, func() ([]os.DirEntry, error) {
		return os.ReadDir(path)
	})
}

// withRetry runs fn until it succeeds, fails with anything but ESTALE, or
// runs out of retries. Backoff doubles up to cfg.MaxBackoff.
func withRetry[T any](op, path string, cfg RetryConfig, fn func() (T, error)) (T, error) {
	backoff := cfg.InitialBackoff
	stale := false

	for attempt := 0; ; attempt++ {
		v, err := fn()
		if err == nil {
			if stale {
				logging.Info("%s %s succeeded on retry %d", op, path, attempt)
				observeRetry(op, OutcomeRecovered)
			}
			return v, nil
		}
		if !IsStale(err) {
			if stale {
				observeRetry(op, OutcomeFailed)
			}
			return v, err
		}

		stale = true
		if attempt >= cfg.MaxRetries {
			logging.Warn("%s %s failed after %d retries: %v", op, path, cfg.MaxRetries, err)
			observeRetry(op, OutcomeFailed)
			return v, err
		}

		logging.Debug("%s %s: stale file handle, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, cfg.MaxRetries)
		time.Sleep(backoff)
		backoff *= 2
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
}

func observeRetry(op, outcome string) {
	if defaultObserver != nil {
		defaultObserver.ObserveRetry(op, outcome)
	}
}
