package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jblairy/techwatch/internal/record"
)

// programSink bridges pipeline deliveries into the bubbletea event loop.
// The pipeline calls it from its own goroutines; messages cross over a
// buffered channel that the model drains with listen. The buffer is
// sized well past one batch worth of deliveries so the pipeline never
// blocks on a slow render.
type programSink struct {
	ch chan tea.Msg
}

func newProgramSink() *programSink {
	return &programSink{ch: make(chan tea.Msg, 512)}
}

func (s *programSink) Clear(gen uint64) {
	s.ch <- clearMsg{gen: gen}
}

func (s *programSink) Present(gen uint64, origin string, records []record.Record) {
	s.ch <- presentMsg{gen: gen, origin: origin, records: records}
}

func (s *programSink) ShowLoadMore(gen uint64, available bool) {
	s.ch <- loadMoreMsg{gen: gen, available: available}
}

func (s *programSink) ShowEmpty(gen uint64) {
	s.ch <- emptyMsg{gen: gen}
}

// listen blocks for the next pipeline message. Re-arm it after every
// received message.
func (s *programSink) listen() tea.Cmd {
	return func() tea.Msg {
		return <-s.ch
	}
}
