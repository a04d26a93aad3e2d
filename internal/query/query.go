// Package query defines the filter specification and the pure
// filter-sort engine that evaluates it against a store snapshot.
package query

// AllTime disables the recency window.
const AllTime = -1

// Query describes one desired view of the store: a recency window and an
// origin filter. Immutable and comparable; used verbatim as a cache key.
type Query struct {
	// Days is the window size: 0 means today only, N means the last N
	// days inclusive of today, AllTime means no date filter.
	Days int

	// Origin restricts results to one origin. Empty means all origins.
	Origin string
}

// Bounded reports whether the query carries a date window.
func (q Query) Bounded() bool {
	return q.Days >= 0
}

// AllOrigins reports whether the query matches every origin.
func (q Query) AllOrigins() bool {
	return q.Origin == ""
}
