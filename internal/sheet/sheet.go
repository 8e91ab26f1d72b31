package sheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"memewall/internal/logging"
	"memewall/internal/records"
)

// DefaultBaseURL is the Google Sheets host used for CSV exports.
const DefaultBaseURL = "https://docs.google.com"

// ErrUnexpectedStatus is returned when the export endpoint answers with a
// non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Client fetches a spreadsheet tab as CSV.
type Client struct {
	httpClient *http.Client
	baseURL    string
	sheetID    string
	tabID      string
	userAgent  string
}

// Config configures a Client.
type Config struct {
	BaseURL   string
	SheetID   string
	TabID     string
	UserAgent string
	Timeout   time.Duration
}

// NewClient creates a sheet client. A nil httpClient gets a client with the
// configured timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base, "/"),
		sheetID:    cfg.SheetID,
		tabID:      cfg.TabID,
		userAgent:  cfg.UserAgent,
	}
}

// ExportURL returns the CSV export URL for the configured tab.
func (c *Client) ExportURL() string {
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", c.tabID)
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?%s", c.baseURL, url.PathEscape(c.sheetID), q.Encode())
}

// FetchRows downloads and parses the tab.
func (c *Client) FetchRows(ctx context.Context) ([]records.Raw, error) {
	u := c.ExportURL()
	logging.Debug("Fetching sheet: %s", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build sheet request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("failed to close sheet response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch sheet: %w: %s", ErrUnexpectedStatus, resp.Status)
	}

	rows, err := ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse sheet: %w", err)
	}
	logging.Debug("Fetched %d sheet rows", len(rows))
	return rows, nil
}

// ParseCSV reads a CSV export with a header row. Headers are trimmed and
// camel-cased; values are trimmed. Rows shorter than the header are padded
// with empty values.
func ParseCSV(r io.Reader) ([]records.Raw, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []records.Raw{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = CamelCase(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var rows []records.Raw
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}

		values := make(map[string]string, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			v := ""
			if i < len(fields) {
				v = strings.TrimSpace(fields[i])
			}
			values[key] = v
		}
		rows = append(rows, rowFromValues(values))
	}

	if rows == nil {
		rows = []records.Raw{}
	}
	return rows, nil
}

func rowFromValues(values map[string]string) records.Raw {
	take := func(key string) string {
		v := values[key]
		delete(values, key)
		return v
	}

	raw := records.Raw{
		Timestamp:                 take("timestamp"),
		Title:                     take("title"),
		TextTranslatedIntoEnglish: take("textTranslatedIntoEnglish"),
		UploadFile:                take("uploadFile"),
		MemeContentType:           take("memeContentType"),
		PeopleIndividuals:         take("peopleIndividuals"),
		MemeTemplateType:          take("memeTemplateType"),
		Language:                  take("language"),
		Country:                   take("country"),
	}
	if len(values) > 0 {
		raw.Extra = values
	}
	return raw
}

var camelBoundary = regexp.MustCompile(`[^a-zA-Z0-9]+(.|$)`)

// CamelCase lower-cases s and removes every run of non-alphanumeric
// characters, upper-casing the character that follows it.
// "Meme Content Type" becomes "memeContentType", "People/Individuals"
// becomes "peopleIndividuals".
func CamelCase(s string) string {
	return camelBoundary.ReplaceAllStringFunc(strings.ToLower(s), func(m string) string {
		sub := camelBoundary.FindStringSubmatch(m)
		return strings.ToUpper(sub[1])
	})
}
