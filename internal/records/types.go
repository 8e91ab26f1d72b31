package records

import (
	"encoding/json"
	"math"
	"time"
)

// Raw is one spreadsheet row with headers already normalized to camelCase and
// values trimmed.
type Raw struct {
	Timestamp                 string `json:"timestamp"`
	Title                     string `json:"title"`
	TextTranslatedIntoEnglish string `json:"textTranslatedIntoEnglish"`
	UploadFile                string `json:"uploadFile"`
	MemeContentType           string `json:"memeContentType"`
	PeopleIndividuals         string `json:"peopleIndividuals"`
	MemeTemplateType          string `json:"memeTemplateType"`
	Language                  string `json:"language"`
	Country                   string `json:"country"`

	// Extra holds every column that is not mapped to a field above, keyed by
	// its normalized header.
	Extra map[string]string `json:"extra,omitempty"`
}

// Normalized is a Raw row that passed the timestamp and media identifier
// checks, with its multi-value fields split.
type Normalized struct {
	Raw

	Timestamp     time.Time `json:"timestamp"`
	DriveID       string    `json:"driveId"`
	MemeTypes     []string  `json:"memeTypes"`
	People        []string  `json:"people"`
	TemplateTypes []string  `json:"templateTypes"`
	Languages     []string  `json:"languages"`
	Countries     []string  `json:"countries"`
}

// Resolved is a Normalized record whose media file exists in the local media
// directory.
type Resolved struct {
	Normalized

	Filename  string `json:"filename"`
	MediaPath string `json:"mediaPath"`
}

// Meme is a Resolved record with an approved image extension and computed
// image metadata. It is the unit the rendering layer consumes.
type Meme struct {
	Resolved

	AspectRatio AspectRatio       `json:"aspectRatio"`
	Variants    map[string]string `json:"variants"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
}

// AspectRatio is width divided by height. Degenerate images produce +Inf or
// NaN, which is kept in memory and encoded as JSON null.
type AspectRatio float64

// IsFinite reports whether the ratio is a usable number.
func (a AspectRatio) IsFinite() bool {
	f := float64(a)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// MarshalJSON implements json.Marshaler.
func (a AspectRatio) MarshalJSON() ([]byte, error) {
	if !a.IsFinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

// UnmarshalJSON implements json.Unmarshaler. null decodes to NaN so a
// round-tripped dataset keeps the "no usable ratio" meaning.
func (a *AspectRatio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = AspectRatio(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = AspectRatio(f)
	return nil
}
