// Package pipeline implements the interactive query pipeline: debounced
// query changes are evaluated against an immutable store snapshot through
// a memoized filter-sort engine, and results stream to a presentation
// sink in paced batches. Every cycle is stamped with a generation id;
// work belonging to a superseded generation is abandoned before it
// reaches the sink.
package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jblairy/techwatch/internal/query"
	"github.com/jblairy/techwatch/internal/record"
)

// State describes what the pipeline is doing. Loading and Filtering are
// the only states with outstanding background work.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFiltering
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFiltering:
		return "filtering"
	default:
		return "idle"
	}
}

// Config tunes the pipeline. Zero values take the defaults below.
type Config struct {
	BatchSize int           // records per batch (default 40)
	ChunkSize int           // records per delivery unit (default 10)
	Debounce  time.Duration // quiet period before evaluating (default 200ms)
	Pace      time.Duration // delay between delivery units (default 10ms)
	CacheSize int           // memoized queries kept (default 20)
}

const (
	defaultBatchSize = 40
	defaultChunkSize = 10
	defaultDebounce  = 200 * time.Millisecond
	defaultPace      = 10 * time.Millisecond
	defaultCacheSize = 20
)

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	if c.Debounce <= 0 {
		c.Debounce = defaultDebounce
	}
	if c.Pace == 0 {
		c.Pace = defaultPace
	}
	// Negative Pace disables pacing entirely.
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
	return c
}

// Coordinator wires the debouncer, cache, generation sequencer and batch
// delivery together. One mutex guards the store, the cache, the current
// generation and the batch cursor; evaluation and delivery run on
// background goroutines and never block the caller.
type Coordinator struct {
	sink    Sink
	catalog []string
	cfg     Config
	logger  *slog.Logger

	// now and evalFn are swapped in tests.
	now    func() time.Time
	evalFn func(*record.Store, query.Query, time.Time) []record.Record

	debounce *debouncer

	mu     sync.Mutex
	store  *record.Store
	cache  *resultCache
	seq    sequencer
	cursor *cursor
	state  State
	query  query.Query
}

// New builds a coordinator delivering to sink. catalog fixes the origin
// enumeration order when grouping batches for presentation.
func New(sink Sink, catalog []string, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	c := &Coordinator{
		sink:    sink,
		catalog: catalog,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
		evalFn:  query.Evaluate,
		store:   record.NewStore(nil),
		cache:   newResultCache(cfg.CacheSize),
		query:   query.Query{Days: query.AllTime},
		state:   StateIdle,
	}
	c.debounce = newDebouncer(cfg.Debounce, c.apply)
	return c
}

// SetLogger replaces the default logger. Call before any store or query
// activity.
func (c *Coordinator) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Close cancels any pending debounced evaluation. In-flight deliveries
// finish (or abandon themselves) on their own goroutines.
func (c *Coordinator) Close() {
	c.debounce.stop()
}

// SetStore replaces the record store wholesale, discards the result
// cache and re-issues the current query against the new store. Call it
// after every successful bulk load; never call it with a partial load.
func (c *Coordinator) SetStore(records []record.Record) {
	c.mu.Lock()
	c.store = record.NewStore(records)
	c.cache.reset()
	c.state = StateLoading
	q := c.query
	total := c.store.Len()
	c.mu.Unlock()

	c.logger.Debug("store replaced", "records", total)
	c.apply(q)
}

// SetQuery schedules q for evaluation after the quiet period. Bursts of
// calls collapse into a single evaluation of the last query.
func (c *Coordinator) SetQuery(q query.Query) {
	c.debounce.notify(q)
}

// LoadMore delivers the next batch for the current generation's cursor.
// A stale or missing cursor makes it a no-op.
func (c *Coordinator) LoadMore() {
	c.mu.Lock()
	cur := c.cursor
	if cur == nil || !c.seq.isCurrent(cur.generation) {
		c.mu.Unlock()
		return
	}
	gen := cur.generation
	batch := cur.take(c.cfg.BatchSize)
	hasMore := cur.hasMore()
	c.mu.Unlock()

	go c.deliver(gen, batch, false, hasMore)
}

// State returns the pipeline state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query returns the last applied query.
func (c *Coordinator) Query() query.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Origins returns the origins present in the current store.
func (c *Coordinator) Origins() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Origins()
}

// Counts returns filtered and total record counts for the current cursor.
func (c *Coordinator) Counts() (filtered, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor != nil {
		filtered = len(c.cursor.records)
	}
	return filtered, c.store.Len()
}

// apply stamps q with a fresh generation, evaluates it through the cache
// and starts batch delivery. Runs off the interactive thread (debounce
// timer, SetStore caller); evaluation is O(n) and holds the lock, which
// also serializes cache access.
func (c *Coordinator) apply(q query.Query) {
	c.mu.Lock()
	gen := c.seq.next()
	c.query = q
	if c.state != StateLoading {
		c.state = StateFiltering
	}

	results, hit := c.cache.get(q)
	if !hit {
		results = c.evalFn(c.store, q, c.now())
		c.cache.put(q, results)
	}

	cur := &cursor{query: q, generation: gen, records: results}
	c.cursor = cur
	batch := cur.take(c.cfg.BatchSize)
	hasMore := cur.hasMore()
	c.mu.Unlock()

	c.logger.Debug("query evaluated",
		"generation", gen, "days", q.Days, "origin", q.Origin,
		"results", len(results), "cache_hit", hit)

	go c.deliver(gen, batch, true, hasMore)
}

// deliver streams one batch to the sink in chunks. Each sink call happens
// under the lock only while gen is still current, so no stale call can be
// observed after a newer generation exists. first marks the first batch
// of a generation: the display is cleared once, and an empty result set
// reports the no-results terminal event instead of an empty render.
func (c *Coordinator) deliver(gen uint64, batch []record.Record, first, hasMore bool) {
	if first {
		if len(batch) == 0 {
			c.finish(gen, func() { c.sink.ShowEmpty(gen) })
			return
		}
		if !c.emit(gen, func() { c.sink.Clear(gen) }) {
			return
		}
	}

	for start := 0; start < len(batch); start += c.cfg.ChunkSize {
		end := start + c.cfg.ChunkSize
		if end > len(batch) {
			end = len(batch)
		}
		chunk := batch[start:end]
		ok := c.emit(gen, func() {
			for _, g := range groupByOrigin(c.catalog, chunk) {
				c.sink.Present(gen, g.origin, g.records)
			}
		})
		if !ok {
			c.logger.Debug("delivery abandoned", "generation", gen)
			return
		}
		if end < len(batch) && c.cfg.Pace > 0 {
			time.Sleep(c.cfg.Pace)
		}
	}

	c.finish(gen, func() { c.sink.ShowLoadMore(gen, hasMore) })
}

// emit runs fn under the lock if gen is still current.
func (c *Coordinator) emit(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seq.isCurrent(gen) {
		return false
	}
	fn()
	return true
}

// finish emits the terminal sink call for gen and, if gen is still
// current, transitions back to Ready. A stale generation leaves the state
// wherever the newer generation put it.
func (c *Coordinator) finish(gen uint64, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.seq.isCurrent(gen) {
		return
	}
	fn()
	c.state = StateReady
}
