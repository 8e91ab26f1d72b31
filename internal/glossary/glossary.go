package glossary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memewall/internal/logging"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the Google Docs host used for HTML exports.
const DefaultBaseURL = "https://docs.google.com"

// OtherGroup is the group assigned to values no hierarchy group lists.
const OtherGroup = "Other"

// ErrUnexpectedStatus is returned when the export endpoint answers with a
// non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Group is a named, ordered list of member values.
type Group struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Hierarchy is an ordered list of groups for one facet category.
type Hierarchy struct {
	Groups []Group `json:"groups"`
}

// GroupOf returns the name of the first group listing value, or OtherGroup.
func (h Hierarchy) GroupOf(value string) string {
	for _, g := range h.Groups {
		for _, m := range g.Members {
			if m == value {
				return g.Name
			}
		}
	}
	return OtherGroup
}

// Order returns the group names in document order.
func (h Hierarchy) Order() []string {
	names := make([]string, len(h.Groups))
	for i, g := range h.Groups {
		names[i] = g.Name
	}
	return names
}

// Client fetches glossary documents.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a glossary client. A nil httpClient gets a client with
// the given timeout.
func NewClient(baseURL, userAgent string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

// ExportURL returns the HTML export URL of a document.
func (c *Client) ExportURL(docID string) string {
	return fmt.Sprintf("%s/document/d/%s/export?format=html", c.baseURL, url.PathEscape(docID))
}

// Fetch downloads a document and parses it into a Hierarchy.
func (c *Client) Fetch(ctx context.Context, docID string) (Hierarchy, error) {
	start := time.Now()
	u := c.ExportURL(docID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("build glossary request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("fetch glossary %s: %w", docID, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("failed to close glossary response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Hierarchy{}, fmt.Errorf("fetch glossary %s: %w: %s", docID, ErrUnexpectedStatus, resp.Status)
	}

	h, err := Parse(resp.Body)
	if err != nil {
		return Hierarchy{}, fmt.Errorf("parse glossary %s: %w", docID, err)
	}

	logging.Debug("Glossary %s: %d groups in %v", docID, len(h.Groups), time.Since(start))
	return h, nil
}

// Parse reads a glossary document. Every h1-h3 heading opens a group; list
// items and paragraphs that follow add members. A member's name is the text
// before the first colon, so "Tractor: farm vehicle towing a tank" adds
// "Tractor". Content before the first heading is ignored.
func Parse(r io.Reader) (Hierarchy, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Hierarchy{}, err
	}

	h := Hierarchy{Groups: []Group{}}
	current := -1

	doc.Find("h1, h2, h3, li, p").Each(func(_ int, s *goquery.Selection) {
		text := cleanText(s.Text())
		if text == "" {
			return
		}

		switch goquery.NodeName(s) {
		case "h1", "h2", "h3":
			h.Groups = append(h.Groups, Group{Name: text, Members: []string{}})
			current = len(h.Groups) - 1
		case "p":
			// Paragraphs nested in list items are covered by the li.
			if s.ParentsFiltered("li").Length() > 0 {
				return
			}
			fallthrough
		default:
			if current < 0 {
				return
			}
			if name := memberName(text); name != "" {
				h.Groups[current].Members = append(h.Groups[current].Members, name)
			}
		}
	})

	return h, nil
}

func memberName(text string) string {
	if i := strings.Index(text, ":"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// cleanText collapses whitespace runs, including non-breaking spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
