package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

type recordingObserver struct {
	calls []string
}

func (r *recordingObserver) ObserveRetry(op, outcome string) {
	r.calls = append(r.calls, op+":"+outcome)
}

func useObserver(t *testing.T) *recordingObserver {
	t.Helper()
	obs := &recordingObserver{}
	SetObserver(obs)
	t.Cleanup(func() { SetObserver(nil) })
	return obs
}

func fastConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestIsStale(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"ESTALE", syscall.ESTALE, true},
		{"wrapped ESTALE", &fs.PathError{Op: "stat", Path: "/x", Err: syscall.ESTALE}, true},
		{"fmt wrapped", fmt.Errorf("read: %w", syscall.ESTALE), true},
		{"ENOENT", syscall.ENOENT, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.err); got != tt.want {
				t.Errorf("IsStale(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		failWith  error
		wantCalls int
		wantErr   bool
		wantObs   []string
	}{
		{"first try", 0, nil, 1, false, nil},
		{"recovers", 2, syscall.ESTALE, 3, false, []string{"op:recovered"}},
		{"exhausts retries", 10, syscall.ESTALE, 4, true, []string{"op:failed"}},
		{"no retry on other errors", 10, syscall.ENOENT, 1, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := useObserver(t)
			calls := 0
			got, err := withRetry("op", "/x", fastConfig(), func() (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, tt.failWith
				}
				return 42, nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != 42 {
				t.Errorf("value = %d, want 42", got)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if fmt.Sprint(obs.calls) != fmt.Sprint(tt.wantObs) {
				t.Errorf("observed %v, want %v", obs.calls, tt.wantObs)
			}
		})
	}
}

func TestWithRetryStaleThenOtherError(t *testing.T) {
	obs := useObserver(t)
	calls := 0
	_, err := withRetry("op", "/x", fastConfig(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, syscall.ESTALE
		}
		return 0, os.ErrNotExist
	})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
	if len(obs.calls) != 1 || obs.calls[0] != "op:failed" {
		t.Errorf("observed %v", obs.calls)
	}
}

func TestStatAndReadDirWithRetry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := StatWithRetry(filepath.Join(dir, "a.jpg"), DefaultRetryConfig())
	if err != nil || info.Size() != 1 {
		t.Fatalf("StatWithRetry = %v, %v", info, err)
	}

	entries, err := ReadDirWithRetry(dir, DefaultRetryConfig())
	if err != nil || len(entries) != 1 || entries[0].Name() != "a.jpg" {
		t.Fatalf("ReadDirWithRetry = %v, %v", entries, err)
	}

	start := time.Now()
	if _, err := StatWithRetry(filepath.Join(dir, "missing"), DefaultRetryConfig()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("missing file took %v, want no retry", elapsed)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxRetries != 3 || cfg.InitialBackoff != 50*time.Millisecond || cfg.MaxBackoff != 500*time.Millisecond {
		t.Errorf("DefaultRetryConfig() = %+v", cfg)
	}
}
