package pipeline

import (
	"sync"
	"time"

	"github.com/jblairy/techwatch/internal/query"
)

// debouncer coalesces bursts of query changes: each notify rearms the
// quiet-period timer, and fire runs once with the latest query after the
// burst settles. Superseded queries are discarded, never queued.
type debouncer struct {
	delay time.Duration
	fire  func(query.Query)

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration, fire func(query.Query)) *debouncer {
	return &debouncer{delay: delay, fire: fire}
}

// notify records q as the latest desired query and restarts the timer.
// Returns immediately; fire runs on the timer goroutine.
func (d *debouncer) notify(q query.Query) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(q)
	})
}

// stop cancels any pending fire.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
