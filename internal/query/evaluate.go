package query

import (
	"sort"
	"strings"
	"time"

	"github.com/jblairy/techwatch/internal/record"
)

// Evaluate applies q to a store snapshot and returns the matching records
// ordered newest first. Dateless records are excluded from bounded
// windows, included under all-time, and sort last (stable on insertion
// order). Pure: safe to call concurrently over the same store.
func Evaluate(s *record.Store, q Query, today time.Time) []record.Record {
	var window DateRange
	if q.Bounded() {
		window = FromDaysBack(q.Days, today)
	}

	recs := s.Records()
	out := make([]record.Record, 0, len(recs))
	for _, r := range recs {
		if q.Bounded() && (!r.HasDate() || !window.Contains(r.Date)) {
			continue
		}
		if !q.AllOrigins() && !strings.EqualFold(r.Origin, q.Origin) {
			continue
		}
		out = append(out, r)
	}

	// Zero time sorts as the minimum, so dateless records land last.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})

	return out
}
