// Package feed fetches articles from configured sources, over RSS or
// by scraping HTML listing pages.
package feed

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mmcdole/gofeed"

	"github.com/jblairy/techwatch/internal/config"
	"github.com/jblairy/techwatch/internal/record"
)

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]record.Record, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
}

// Some feeds (reddit in particular) reject the default Go user agent.
const userAgent = "Mozilla/5.0 (Linux; techwatch)"

func NewRSSFetcher() *RSSFetcher {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	return &RSSFetcher{parser: p}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]record.Record, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	records := make([]record.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Title == "" || item.Link == "" {
			continue
		}

		// Records without a parseable date are kept dateless rather
		// than dropped; they only show up under the all-time filter.
		var pub time.Time
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}
		desc = truncate(stripHTML(desc), 300)

		records = append(records, record.Record{
			Title:   strings.TrimSpace(item.Title),
			URL:     strings.TrimSpace(item.Link),
			Date:    pub,
			Origin:  source.Name,
			Summary: desc,
		})
	}
	return records, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

type FetchResult struct {
	Records []record.Record
	Err     error
}

// forSource picks the fetcher matching the source type. Unknown types
// are rejected at config validation, rss is the fallback.
func forSource(s config.Source) Fetcher {
	if s.Type == "html" {
		return NewHTMLFetcher()
	}
	return NewRSSFetcher()
}

// FetchAll fans out over all sources concurrently. Failures are
// collected per source so one broken feed never hides the others.
func FetchAll(ctx context.Context, sources []config.Source) FetchResult {
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	for _, src := range sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			records, err := forSource(s).Fetch(ctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Err = multierror.Append(result.Err, err)
				return
			}
			result.Records = append(result.Records, records...)
		}(src)
	}

	wg.Wait()
	return result
}
