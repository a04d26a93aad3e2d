package pipeline

import "github.com/jblairy/techwatch/internal/record"

// Sink receives result batches for display. Every call is tagged with the
// generation that produced it so implementations can drop anything older
// than the newest generation they have seen. Calls are made from delivery
// goroutines, serialized under the coordinator lock, and are safe to
// apply repeatedly.
type Sink interface {
	// Clear resets the displayed results. Called once per generation,
	// before its first batch.
	Clear(gen uint64)

	// Present appends one origin's share of a delivery chunk.
	Present(gen uint64, origin string, records []record.Record)

	// ShowLoadMore reports whether more batches remain after the ones
	// delivered so far.
	ShowLoadMore(gen uint64, available bool)

	// ShowEmpty replaces the first batch when a query matched nothing.
	ShowEmpty(gen uint64)
}
