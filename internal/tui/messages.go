package tui

import (
	"github.com/jblairy/techwatch/internal/record"
	"github.com/jblairy/techwatch/internal/storage"
)

// Pipeline events. Every message carries the generation it belongs to;
// the model drops anything older than the newest generation it has seen.

type clearMsg struct {
	gen uint64
}

type presentMsg struct {
	gen     uint64
	origin  string
	records []record.Record
}

type loadMoreMsg struct {
	gen       uint64
	available bool
}

type emptyMsg struct {
	gen uint64
}

// refreshDoneMsg reports a completed crawl and database reload.
type refreshDoneMsg struct {
	records []record.Record
	meta    storage.Metadata
	added   int
	err     error
}

type errMsg struct {
	err error
}
