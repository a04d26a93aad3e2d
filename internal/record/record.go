// Package record defines the article record and the immutable store
// snapshot the query pipeline filters over.
package record

import "time"

// UnknownOrigin labels records whose source did not provide an origin.
// It is a regular origin for filtering and display purposes.
const UnknownOrigin = "Unknown source"

// Record is one collected article. Immutable once constructed.
type Record struct {
	Title   string
	URL     string
	Date    time.Time // zero when the source provided no date
	Origin  string
	Summary string
}

// HasDate reports whether the record carries a usable date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}

// Key is the identity used for deduplication.
type Key struct {
	Title string
	URL   string
}

func (r Record) Key() Key {
	return Key{Title: r.Title, URL: r.URL}
}
