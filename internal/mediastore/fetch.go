package mediastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"memewall/internal/filesystem"
	"memewall/internal/logging"
	"memewall/internal/mediatypes"
	"memewall/internal/records"
)

// DefaultBaseURL is the Google Drive host serving direct downloads.
const DefaultBaseURL = "https://drive.google.com"

// FallbackExtension is used when neither the Content-Type nor the
// Content-Disposition header identifies the file type.
const FallbackExtension = ".bin"

var (
	// ErrHTMLResponse is returned when Drive answers with an HTML page
	// (virus scan interstitial, login wall, quota notice) instead of the file.
	ErrHTMLResponse = errors.New("received HTML page instead of media file")

	// ErrUnexpectedStatus is returned for non-2xx download responses.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// Config configures a Fetcher.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Fetcher downloads Drive files into a local media directory. A file is
// stored as "<driveID><ext>" and never downloaded twice.
type Fetcher struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewFetcher creates a Fetcher. A nil httpClient gets a client with the
// configured timeout.
func NewFetcher(cfg Config, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Fetcher{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base, "/"),
		userAgent:  cfg.UserAgent,
	}
}

// DownloadURL returns the direct download URL of a Drive file.
func (f *Fetcher) DownloadURL(driveID string) string {
	q := url.Values{}
	q.Set("export", "download")
	q.Set("id", driveID)
	return f.baseURL + "/uc?" + q.Encode()
}

// Fetch returns the local filename of rec's media inside dir, downloading it
// when no file for its Drive ID exists yet. downloaded reports whether a
// request was made.
func (f *Fetcher) Fetch(ctx context.Context, rec records.Normalized, dir string) (filename string, downloaded bool, err error) {
	if rec.DriveID == "" || strings.ContainsAny(rec.DriveID, `/\`) || strings.HasPrefix(rec.DriveID, ".") {
		return "", false, fmt.Errorf("record %q: invalid drive id %q", rec.Title, rec.DriveID)
	}

	if name, ok, err := Existing(dir, rec.DriveID); err != nil {
		return "", false, err
	} else if ok {
		logging.Debug("Media cache hit: %s", name)
		return name, false, nil
	}

	name, err := f.download(ctx, rec.DriveID, dir)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// Existing looks for a stored file whose name without extension is driveID.
func Existing(dir, driveID string) (string, bool, error) {
	entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read media dir: %w", err)
	}

	var matches []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || isHidden(name) {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == driveID {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return "", false, nil
	}
	sort.Strings(matches)
	return matches[0], true, nil
}

func (f *Fetcher) download(ctx context.Context, driveID, dir string) (string, error) {
	start := time.Now()
	u := f.DownloadURL(driveID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", driveID, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("failed to close download body for %s: %v", driveID, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download %s: %w: %s", driveID, ErrUnexpectedStatus, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
		return "", fmt.Errorf("download %s: %w", driveID, ErrHTMLResponse)
	}

	ext := ExtensionFor(contentType, resp.Header.Get("Content-Disposition"))
	name := driveID + ext

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	n, err := writeAtomic(filepath.Join(dir, name), resp.Body)
	if err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}

	logging.Info("Downloaded %s (%d bytes, %s) in %v", name, n, contentType, time.Since(start))
	return name, nil
}

// ExtensionFor picks a file extension from response headers: the
// Content-Type first, then the Content-Disposition filename, then
// FallbackExtension.
func ExtensionFor(contentType, contentDisposition string) string {
	if ext := mediatypes.ExtensionForMime(contentType); ext != "" {
		return ext
	}
	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		if ext := mediatypes.Ext(params["filename"]); ext != "" {
			return ext
		}
	}
	return FallbackExtension
}

func writeAtomic(dst string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".download-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return n, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
