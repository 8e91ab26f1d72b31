package records

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Separator joins the values of a multi-value spreadsheet field.
const Separator = ", "

var driveIDPattern = regexp.MustCompile(`id=([^&]+)`)

// timestampLayouts are tried in order. The first is what Google Forms writes
// into a response sheet.
var timestampLayouts = []string{
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"January 2, 2006 15:04:05",
	"January 2, 2006 3:04:05 PM",
	"January 2, 2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
}

// DropReason explains why Normalize rejected a row.
type DropReason string

const (
	// DropNone means the row was kept.
	DropNone DropReason = ""
	// DropNoTimestamp marks an empty timestamp cell (usually a blank row).
	DropNoTimestamp DropReason = "no_timestamp"
	// DropNoMediaID marks an upload reference without an id= parameter.
	DropNoMediaID DropReason = "no_media_id"
)

// Normalize parses the raw row into a Normalized record. The second return
// value is DropNone when the row is kept; otherwise the record is zero and the
// row should be skipped silently.
//
// A non-empty timestamp that no known layout accepts does not drop the row.
// The record keeps a zero Timestamp, so it sorts after every dated record;
// check Undated to report it.
func Normalize(raw Raw) (Normalized, DropReason) {
	if strings.TrimSpace(raw.Timestamp) == "" {
		return Normalized{}, DropNoTimestamp
	}

	driveID := ExtractDriveID(raw.UploadFile)
	if driveID == "" {
		return Normalized{}, DropNoMediaID
	}

	ts, _ := ParseTimestamp(raw.Timestamp)

	return Normalized{
		Raw:           raw,
		Timestamp:     ts,
		DriveID:       driveID,
		MemeTypes:     SplitMulti(raw.MemeContentType),
		People:        SplitMulti(raw.PeopleIndividuals),
		TemplateTypes: SplitMulti(raw.MemeTemplateType),
		Languages:     SplitMulti(raw.Language),
		Countries:     SplitMulti(raw.Country),
	}, DropNone
}

// ExtractDriveID returns the value of the first id= query parameter in a
// Google Drive share link, or "" when there is none.
func ExtractDriveID(ref string) string {
	m := driveIDPattern.FindStringSubmatch(ref)
	if m == nil {
		return ""
	}
	return m[1]
}

// SplitMulti splits a multi-value field on Separator and trims each token.
// Order and duplicates are preserved. An empty field yields an empty slice.
func SplitMulti(field string) []string {
	if strings.TrimSpace(field) == "" {
		return []string{}
	}
	parts := strings.Split(field, Separator)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// ParseTimestamp parses a spreadsheet timestamp in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Undated reports whether the record's timestamp could not be parsed.
func (n Normalized) Undated() bool {
	return n.Timestamp.IsZero()
}

// SortByTimestampDesc orders records newest first. Records with equal
// timestamps keep their relative order; undated records come last.
func SortByTimestampDesc(recs []Normalized) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})
}
