// Package storage persists collected records in a single JSON database
// file. Saves append new articles, deduplicating by URL; the whole file
// is rewritten atomically on every save.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jblairy/techwatch/internal/record"
)

const formatVersion = "2.0"

// Metadata describes the state of the database at the last save.
type Metadata struct {
	GeneratedAt   time.Time `json:"generated_at"`
	TotalArticles int       `json:"total_articles"`
	Sources       []string  `json:"sources"`
	FormatVersion string    `json:"format_version"`
	DateRange     *DateSpan `json:"date_range,omitempty"`
}

// DateSpan is the covered publication range, day-granular.
type DateSpan struct {
	Earliest  string `json:"earliest"`
	Latest    string `json:"latest"`
	DaysRange int    `json:"days_range"`
}

// article is the on-disk shape of one record.
type article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Date    string `json:"date,omitempty"` // YYYY-MM-DD, empty when unknown
	Source  string `json:"source,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type database struct {
	Metadata Metadata  `json:"metadata"`
	Articles []article `json:"articles"`
}

// DB is a handle on the JSON database file.
type DB struct {
	path string
}

// Open prepares the database at path, creating the parent directory if
// needed. The file itself is created on first save.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	return &DB{path: path}, nil
}

// Path returns the database file location.
func (d *DB) Path() string {
	return d.path
}

// Save appends records to the database, skipping articles whose URL is
// already present, and rewrites the metadata from the merged set.
// Returns the number of articles actually added.
func (d *DB) Save(records []record.Record) (int, error) {
	existing, _, err := d.load()
	if err != nil {
		return 0, err
	}

	known := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		known[a.URL] = struct{}{}
	}

	added := 0
	merged := existing
	for _, r := range records {
		if _, dup := known[r.URL]; dup {
			continue
		}
		known[r.URL] = struct{}{}
		merged = append(merged, toArticle(r))
		added++
	}

	db := database{
		Metadata: buildMetadata(merged),
		Articles: merged,
	}

	if err := d.write(db); err != nil {
		return 0, err
	}

	slog.Info("database updated", "added", added, "total", len(merged), "path", d.path)
	return added, nil
}

// Load reads every record and the metadata from the database. A missing
// file yields an empty result, not an error; individually malformed
// articles are skipped.
func (d *DB) Load() ([]record.Record, Metadata, error) {
	articles, meta, err := d.load()
	if err != nil {
		return nil, Metadata{}, err
	}

	records := make([]record.Record, 0, len(articles))
	for _, a := range articles {
		if a.URL == "" || a.Title == "" {
			continue
		}
		records = append(records, fromArticle(a))
	}

	slog.Info("database loaded", "records", len(records), "path", d.path)
	return records, meta, nil
}

// Stats reports the article count and the file size on disk.
func (d *DB) Stats() (count int, size int64, err error) {
	articles, _, err := d.load()
	if err != nil {
		return 0, 0, err
	}
	info, err := os.Stat(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return len(articles), 0, nil
		}
		return 0, 0, err
	}
	return len(articles), info.Size(), nil
}

func (d *DB) load() ([]article, Metadata, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Metadata{}, nil
		}
		return nil, Metadata{}, fmt.Errorf("reading database: %w", err)
	}

	var db database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, Metadata{}, fmt.Errorf("parsing database %s: %w", d.path, err)
	}
	return db.Articles, db.Metadata, nil
}

// write replaces the database file atomically via a temp file rename.
func (d *DB) write(db database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding database: %w", err)
	}

	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing database: %w", err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing database: %w", err)
	}
	return nil
}

func buildMetadata(articles []article) Metadata {
	sourceSet := make(map[string]struct{})
	var dates []string
	for _, a := range articles {
		if a.Source != "" {
			sourceSet[a.Source] = struct{}{}
		}
		if a.Date != "" {
			dates = append(dates, a.Date)
		}
	}

	sources := make([]string, 0, len(sourceSet))
	for s := range sourceSet {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	meta := Metadata{
		GeneratedAt:   time.Now(),
		TotalArticles: len(articles),
		Sources:       sources,
		FormatVersion: formatVersion,
	}

	if len(dates) > 0 {
		sort.Strings(dates) // YYYY-MM-DD sorts chronologically
		earliest, _ := time.Parse(time.DateOnly, dates[0])
		latest, _ := time.Parse(time.DateOnly, dates[len(dates)-1])
		meta.DateRange = &DateSpan{
			Earliest:  dates[0],
			Latest:    dates[len(dates)-1],
			DaysRange: int(latest.Sub(earliest).Hours()/24) + 1,
		}
	}

	return meta
}

func toArticle(r record.Record) article {
	a := article{
		Title:   r.Title,
		URL:     r.URL,
		Source:  r.Origin,
		Summary: r.Summary,
	}
	if r.HasDate() {
		a.Date = r.Date.Format(time.DateOnly)
	}
	return a
}

func fromArticle(a article) record.Record {
	r := record.Record{
		Title:   a.Title,
		URL:     a.URL,
		Origin:  a.Source,
		Summary: a.Summary,
	}
	if a.Date != "" {
		if t, err := time.Parse(time.DateOnly, a.Date); err == nil {
			r.Date = t
		} else if t, err := time.Parse(time.RFC3339, a.Date); err == nil {
			r.Date = t
		}
		// Unparseable dates leave the record dateless rather than
		// dropping it.
	}
	return r
}
