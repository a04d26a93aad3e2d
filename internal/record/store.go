package record

import (
	"sort"
)

// Store holds one bulk-loaded set of records. It is built once and never
// mutated; a new load produces a new Store. The derived lookup structures
// are built together in NewStore so they can never be observed partially
// updated.
type Store struct {
	records  []Record
	byOrigin map[string][]Record
	byDate   []Record // date ascending, dateless records omitted
	origins  []string
}

// NewStore builds a store from records in insertion order. Duplicates by
// (title, URL) are dropped, keeping the first occurrence. Records without
// an origin are filed under UnknownOrigin.
func NewStore(records []Record) *Store {
	s := &Store{
		byOrigin: make(map[string][]Record),
	}

	seen := make(map[Key]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}

		if r.Origin == "" {
			r.Origin = UnknownOrigin
		}
		s.records = append(s.records, r)
		s.byOrigin[r.Origin] = append(s.byOrigin[r.Origin], r)
		if r.HasDate() {
			s.byDate = append(s.byDate, r)
		}
	}

	sort.SliceStable(s.byDate, func(i, j int) bool {
		return s.byDate[i].Date.Before(s.byDate[j].Date)
	})

	for origin := range s.byOrigin {
		s.origins = append(s.origins, origin)
	}
	sort.Strings(s.origins)

	return s
}

// Records returns all records in insertion order. Callers must not
// modify the returned slice.
func (s *Store) Records() []Record {
	return s.records
}

func (s *Store) Len() int {
	return len(s.records)
}

// ByOrigin returns the records filed under origin, in insertion order.
func (s *Store) ByOrigin(origin string) []Record {
	return s.byOrigin[origin]
}

// Origins returns the sorted list of origins present in the store.
func (s *Store) Origins() []string {
	return s.origins
}

// ByDate returns records with a date, oldest first.
func (s *Store) ByDate() []Record {
	return s.byDate
}
