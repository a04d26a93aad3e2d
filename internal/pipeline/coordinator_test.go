package pipeline

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jblairy/techwatch/internal/query"
	"github.com/jblairy/techwatch/internal/record"
)

var testToday = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

type sinkCall struct {
	gen     uint64
	kind    string // "clear", "present", "loadmore", "empty"
	origin  string
	count   int
	hasMore bool
}

// fakeSink records every delivery call in order.
type fakeSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *fakeSink) Clear(gen uint64) {
	s.add(sinkCall{gen: gen, kind: "clear"})
}

func (s *fakeSink) Present(gen uint64, origin string, records []record.Record) {
	s.add(sinkCall{gen: gen, kind: "present", origin: origin, count: len(records)})
}

func (s *fakeSink) ShowLoadMore(gen uint64, available bool) {
	s.add(sinkCall{gen: gen, kind: "loadmore", hasMore: available})
}

func (s *fakeSink) ShowEmpty(gen uint64) {
	s.add(sinkCall{gen: gen, kind: "empty"})
}

func (s *fakeSink) add(c sinkCall) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *fakeSink) snapshot() []sinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkCall(nil), s.calls...)
}

// terminals counts the delivery-finished events seen so far.
func (s *fakeSink) terminals() int {
	n := 0
	for _, c := range s.snapshot() {
		if c.kind == "loadmore" || c.kind == "empty" {
			n++
		}
	}
	return n
}

func (s *fakeSink) presented(kind string) int {
	n := 0
	for _, c := range s.snapshot() {
		if c.kind == kind {
			n++
		}
	}
	return n
}

// waitTerminals polls until want delivery cycles have finished.
func waitTerminals(t *testing.T, s *fakeSink, want int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.terminals() >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pipeline did not settle: %d/%d terminal events", s.terminals(), want)
}

func testCoordinator(sink Sink, catalog []string, cfg Config) *Coordinator {
	if cfg.Pace == 0 {
		cfg.Pace = -1 // no pacing unless the test asks for it
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = 5 * time.Millisecond
	}
	c := New(sink, catalog, cfg)
	c.now = func() time.Time { return testToday }
	return c
}

func originRecs(origin string, date time.Time, n int) []record.Record {
	out := make([]record.Record, n)
	for i := range out {
		out[i] = record.Record{
			Title:  fmt.Sprintf("%s %d", origin, i),
			URL:    fmt.Sprintf("https://example.com/%s/%d", origin, i),
			Origin: origin,
			Date:   date,
		}
	}
	return out
}

// Store with 45 records: 40 from origin A dated today, 5 from origin B
// dated 10 days ago. A today-only query must deliver exactly the 40 A
// records in one batch with nothing left over.
func TestSingleBatchScenario(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, []string{"A", "B"}, Config{BatchSize: 40, ChunkSize: 10})
	defer c.Close()

	store := append(originRecs("A", testToday, 40), originRecs("B", testToday.AddDate(0, 0, -10), 5)...)
	c.SetStore(store)
	waitTerminals(t, sink, 1)

	c.apply(query.Query{Days: 0})
	waitTerminals(t, sink, 2)

	calls := sink.snapshot()
	last := calls[len(calls)-1]
	if last.kind != "loadmore" || last.hasMore {
		t.Errorf("expected final ShowLoadMore(false), got %+v", last)
	}

	gen := last.gen
	total := 0
	for _, call := range calls {
		if call.gen != gen || call.kind != "present" {
			continue
		}
		if call.origin != "A" {
			t.Errorf("unexpected origin %q in today-only results", call.origin)
		}
		total += call.count
	}
	if total != 40 {
		t.Errorf("expected 40 records delivered, got %d", total)
	}
}

func TestEmptyStoreShowsEmpty(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{})
	defer c.Close()

	c.apply(query.Query{Days: 7})
	waitTerminals(t, sink, 1)

	if got := sink.presented("empty"); got != 1 {
		t.Errorf("expected exactly one ShowEmpty, got %d", got)
	}
	if got := sink.presented("present"); got != 0 {
		t.Errorf("expected no Present calls, got %d", got)
	}
	if got := sink.presented("clear"); got != 0 {
		t.Errorf("expected no Clear for an empty result, got %d", got)
	}
}

func TestCacheAvoidsReevaluation(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{})
	defer c.Close()

	evals := 0
	c.evalFn = func(s *record.Store, q query.Query, now time.Time) []record.Record {
		evals++
		return query.Evaluate(s, q, now)
	}

	c.SetStore(originRecs("A", testToday, 3))
	waitTerminals(t, sink, 1)
	evals = 0 // ignore the evaluation triggered by the load

	q := query.Query{Days: 7}
	c.apply(q)
	waitTerminals(t, sink, 2)
	c.apply(q)
	waitTerminals(t, sink, 3)

	if evals != 1 {
		t.Errorf("expected 1 evaluation for repeated identical queries, got %d", evals)
	}
}

func TestCacheEvictionOrder(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{CacheSize: 2})
	defer c.Close()

	evals := 0
	c.evalFn = func(s *record.Store, q query.Query, now time.Time) []record.Record {
		evals++
		return query.Evaluate(s, q, now)
	}

	c.SetStore(originRecs("A", testToday, 3))
	waitTerminals(t, sink, 1)
	evals = 0

	q1 := query.Query{Days: 1}
	q2 := query.Query{Days: 2}
	q3 := query.Query{Days: 3}

	terms := 1
	for _, q := range []query.Query{q1, q2, q3} {
		c.apply(q)
		terms++
		waitTerminals(t, sink, terms)
	}
	if evals != 3 {
		t.Fatalf("expected 3 evaluations for 3 distinct queries, got %d", evals)
	}

	// q1 was evicted by q3; re-issuing it is a miss again.
	c.apply(q1)
	terms++
	waitTerminals(t, sink, terms)
	if evals != 4 {
		t.Errorf("expected q1 to be re-evaluated after eviction, got %d evaluations", evals)
	}

	// q3 is still cached.
	c.apply(q3)
	terms++
	waitTerminals(t, sink, terms)
	if evals != 4 {
		t.Errorf("expected q3 to hit the cache, got %d evaluations", evals)
	}
}

func TestSetStoreDiscardsCache(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{})
	defer c.Close()

	evals := 0
	c.evalFn = func(s *record.Store, q query.Query, now time.Time) []record.Record {
		evals++
		return query.Evaluate(s, q, now)
	}

	c.SetStore(originRecs("A", testToday, 2))
	waitTerminals(t, sink, 1)

	q := query.Query{Days: 7}
	c.apply(q)
	waitTerminals(t, sink, 2)
	before := evals

	// Replacing the store re-issues the current query against it.
	c.SetStore(originRecs("A", testToday, 5))
	waitTerminals(t, sink, 3)

	if evals != before+1 {
		t.Errorf("expected store replacement to force re-evaluation, got %d evals (was %d)", evals, before)
	}
	filtered, total := c.Counts()
	if total != 5 || filtered != 5 {
		t.Errorf("expected 5/5 after reload, got %d/%d", filtered, total)
	}
}

func TestLoadMoreWalksBatches(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{BatchSize: 40, ChunkSize: 10})
	defer c.Close()

	c.SetStore(originRecs("A", testToday, 100))
	waitTerminals(t, sink, 1)

	counts := func(gen uint64) int {
		total := 0
		for _, call := range sink.snapshot() {
			if call.gen == gen && call.kind == "present" {
				total += call.count
			}
		}
		return total
	}

	calls := sink.snapshot()
	gen := calls[len(calls)-1].gen
	if got := counts(gen); got != 40 {
		t.Fatalf("expected first batch of 40, got %d", got)
	}
	if last := calls[len(calls)-1]; !last.hasMore {
		t.Fatal("expected has-more after first batch")
	}

	c.LoadMore()
	waitTerminals(t, sink, 2)
	if got := counts(gen); got != 80 {
		t.Fatalf("expected 80 after one LoadMore, got %d", got)
	}

	c.LoadMore()
	waitTerminals(t, sink, 3)
	if got := counts(gen); got != 100 {
		t.Fatalf("expected all 100 after second LoadMore, got %d", got)
	}
	calls = sink.snapshot()
	if last := calls[len(calls)-1]; last.hasMore {
		t.Error("expected exhaustion after final batch")
	}

	// Exhausted cursor: nothing delivered, exhaustion re-reported.
	c.LoadMore()
	waitTerminals(t, sink, 4)
	if got := counts(gen); got != 100 {
		t.Errorf("expected no extra records from exhausted cursor, got %d", got)
	}
}

// Issuing a new query while the previous one is still streaming must stop
// the old generation: no Present tagged with it may follow any call of
// the newer generation.
func TestStaleGenerationAbandoned(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{
		BatchSize: 200,
		ChunkSize: 10,
		Pace:      5 * time.Millisecond,
	})
	defer c.Close()

	store := append(originRecs("A", testToday, 200), originRecs("B", testToday.AddDate(0, 0, -1), 20)...)
	c.SetStore(store)

	// Let the first generation start presenting, then supersede it.
	deadline := time.Now().Add(3 * time.Second)
	for sink.presented("present") == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	c.apply(query.Query{Days: 1, Origin: "B"})
	waitTerminals(t, sink, 1)
	time.Sleep(50 * time.Millisecond) // room for any stray stale chunk

	calls := sink.snapshot()
	var newest uint64
	for _, call := range calls {
		if call.gen > newest {
			newest = call.gen
		}
	}

	seenNewer := false
	for _, call := range calls {
		if call.gen == newest {
			seenNewer = true
			continue
		}
		if seenNewer && call.kind == "present" {
			t.Fatalf("stale generation %d presented after generation %d started", call.gen, newest)
		}
	}

	// The surviving generation delivered only origin B.
	for _, call := range calls {
		if call.gen == newest && call.kind == "present" && call.origin != "B" {
			t.Errorf("unexpected origin %q in final generation", call.origin)
		}
	}
}

func TestSetQueryDebounces(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{Debounce: 30 * time.Millisecond})
	defer c.Close()

	evals := 0
	c.evalFn = func(s *record.Store, q query.Query, now time.Time) []record.Record {
		evals++
		return query.Evaluate(s, q, now)
	}

	for days := 1; days <= 6; days++ {
		c.SetQuery(query.Query{Days: days})
	}
	waitTerminals(t, sink, 1)

	if evals != 1 {
		t.Errorf("expected a burst to evaluate once, got %d", evals)
	}
	if got := c.Query(); got.Days != 6 {
		t.Errorf("expected the last query to win, got days=%d", got.Days)
	}
}

func TestStateTransitions(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{})
	defer c.Close()

	if c.State() != StateIdle {
		t.Errorf("expected initial state idle, got %v", c.State())
	}

	c.SetStore(originRecs("A", testToday, 2))
	waitTerminals(t, sink, 1)
	if c.State() != StateReady {
		t.Errorf("expected ready after load settles, got %v", c.State())
	}

	c.apply(query.Query{Days: 0})
	waitTerminals(t, sink, 2)
	if c.State() != StateReady {
		t.Errorf("expected ready after filtering settles, got %v", c.State())
	}
}

func TestLoadMoreWithoutCursorIsNoop(t *testing.T) {
	sink := &fakeSink{}
	c := testCoordinator(sink, nil, Config{})
	defer c.Close()

	c.LoadMore()
	time.Sleep(30 * time.Millisecond)

	if calls := sink.snapshot(); len(calls) != 0 {
		t.Errorf("expected no sink calls before any evaluation, got %v", calls)
	}
}
