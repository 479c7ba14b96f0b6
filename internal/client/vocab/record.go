// Package vocab holds the in-memory vocabulary deck: the record type,
// the filtered view with its cursor, and the merge rules used when
// enrichment or remote sync results come back.
package vocab

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the review state of a record.
type Status string

const (
	// StatusNew is assigned on creation.
	StatusNew Status = "new"
	// StatusLearning is what a known record falls back to when toggled.
	StatusLearning Status = "learning"
	// StatusKnown marks a record the user has learned.
	StatusKnown Status = "known"
)

// FilterAll selects every record regardless of status.
const FilterAll = "all"

// Normalize maps an empty or unrecognised status to StatusNew.
func (s Status) Normalize() Status {
	switch s {
	case StatusNew, StatusLearning, StatusKnown:
		return s
	default:
		return StatusNew
	}
}

// Record is one vocabulary entry. Empty strings mean "absent" for the
// optional enrichment fields; an empty RemoteID means the record has not
// been created on the server yet.
type Record struct {
	ID           string `json:"id"`
	RemoteID     string `json:"_id,omitempty"`
	Word         string `json:"word"`
	Meaning      string `json:"meaning,omitempty"`
	Example      string `json:"example,omitempty"`
	Phonetics    string `json:"phonetics,omitempty"`
	PartOfSpeech string `json:"pos,omitempty"`
	Definition   string `json:"definition,omitempty"`
	AudioURL     string `json:"audio,omitempty"`
	Status       Status `json:"status"`
	// CreatedAt is unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Enrichment is the linguistic metadata looked up for a word.
type Enrichment struct {
	Phonetics    string `json:"phonetics"`
	AudioURL     string `json:"audio"`
	PartOfSpeech string `json:"pos"`
	Definition   string `json:"definition"`
	Example      string `json:"example"`
}

// Merge fills every empty enrichment field of r from info. Fields that
// already hold a value are never overwritten.
func (r Record) Merge(info Enrichment) Record {
	r.Phonetics = firstNonEmpty(r.Phonetics, info.Phonetics)
	r.AudioURL = firstNonEmpty(r.AudioURL, info.AudioURL)
	r.PartOfSpeech = firstNonEmpty(r.PartOfSpeech, info.PartOfSpeech)
	r.Definition = firstNonEmpty(r.Definition, info.Definition)
	r.Example = firstNonEmpty(r.Example, info.Example)
	return r
}

// NeedsEnrichment reports whether any of the looked-up fields shown on a
// card is still missing.
func (r Record) NeedsEnrichment() bool {
	return r.Phonetics == "" || r.Definition == "" || r.Example == ""
}

// Matches reports whether r passes the status filter and the
// case-insensitive search over word, meaning and definition. query must
// already be lower-cased and trimmed.
func (r Record) Matches(status string, query string) bool {
	if status != FilterAll && string(r.Status.Normalize()) != status {
		return false
	}
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Word), query) ||
		strings.Contains(strings.ToLower(r.Meaning), query) ||
		strings.Contains(strings.ToLower(r.Definition), query)
}

// Reconcile turns a list fetched from the server into local records.
//
// The local id is taken from the document's id, then its server id, then
// the fallback key word_createdAt. Documents whose key collides with an
// earlier one keep their position and get a "#n" suffix, so no record is
// dropped. Missing statuses become "new" and missing creation times
// become now.
func Reconcile(docs []Record, now time.Time) []Record {
	out := make([]Record, 0, len(docs))
	seen := make(map[string]int, len(docs))
	for _, d := range docs {
		if d.CreatedAt == 0 {
			d.CreatedAt = now.UnixMilli()
		}
		key := firstNonEmpty(d.ID, d.RemoteID)
		if key == "" {
			key = d.Word + "_" + strconv.FormatInt(d.CreatedAt, 10)
		}
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			key = fmt.Sprintf("%s#%d", key, n+1)
		} else {
			seen[key] = 0
		}
		d.ID = key
		d.Status = d.Status.Normalize()
		out = append(out, d)
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
