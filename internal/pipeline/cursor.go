package pipeline

import (
	"github.com/jblairy/techwatch/internal/query"
	"github.com/jblairy/techwatch/internal/record"
)

// cursor tracks progressive delivery of one generation's results. It is
// created when a query is evaluated, advanced by take under the
// coordinator lock, and discarded when a newer generation supersedes it.
type cursor struct {
	query      query.Query
	generation uint64
	records    []record.Record
	offset     int
}

// take returns the next batch of up to size records and advances the
// cursor. An exhausted cursor yields an empty batch.
func (c *cursor) take(size int) []record.Record {
	if c.offset >= len(c.records) {
		return nil
	}
	end := c.offset + size
	if end > len(c.records) {
		end = len(c.records)
	}
	batch := c.records[c.offset:end]
	c.offset = end
	return batch
}

// hasMore reports whether records remain past the delivered batches.
func (c *cursor) hasMore() bool {
	return c.offset < len(c.records)
}

// originGroup is one origin's share of a delivery chunk.
type originGroup struct {
	origin  string
	records []record.Record
}

// groupByOrigin splits a chunk by origin, ordered by the catalog.
// Origins present in the chunk but absent from the catalog (including the
// placeholder for records without one) are appended in first-seen order.
func groupByOrigin(catalog []string, records []record.Record) []originGroup {
	byOrigin := make(map[string][]record.Record, len(catalog))
	var extras []string
	for _, r := range records {
		origin := r.Origin
		if origin == "" {
			origin = record.UnknownOrigin
		}
		if _, seen := byOrigin[origin]; !seen && !contains(catalog, origin) {
			extras = append(extras, origin)
		}
		byOrigin[origin] = append(byOrigin[origin], r)
	}

	groups := make([]originGroup, 0, len(byOrigin))
	for _, origin := range catalog {
		if recs := byOrigin[origin]; len(recs) > 0 {
			groups = append(groups, originGroup{origin: origin, records: recs})
		}
	}
	for _, origin := range extras {
		groups = append(groups, originGroup{origin: origin, records: byOrigin[origin]})
	}
	return groups
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
