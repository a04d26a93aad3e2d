package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jblairy/techwatch/internal/config"
	"github.com/jblairy/techwatch/internal/record"
)

// HTMLFetcher scrapes article listing pages that expose no feed. It
// expects the common blog markup shape: one <article> element per
// post, a heading with a link inside, and an optional
// <time datetime="..."> element.
type HTMLFetcher struct {
	client *http.Client
}

func NewHTMLFetcher() *HTMLFetcher {
	return &HTMLFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *HTMLFetcher) Fetch(ctx context.Context, source config.Source) ([]record.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", source.Name, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", source.Name, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source.Name, err)
	}

	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url for %s: %w", source.Name, err)
	}

	var records []record.Record
	doc.Find("article").Each(func(_ int, sel *goquery.Selection) {
		rec, ok := parseArticle(sel, base, source.Name)
		if ok {
			records = append(records, rec)
		}
	})
	return records, nil
}

func parseArticle(sel *goquery.Selection, base *url.URL, origin string) (record.Record, bool) {
	link := sel.Find("h1 a, h2 a, h3 a").First()
	if link.Length() == 0 {
		link = sel.Find("a[href]").First()
	}
	href, _ := link.Attr("href")
	title := strings.TrimSpace(link.Text())
	if title == "" || href == "" {
		return record.Record{}, false
	}

	abs, err := base.Parse(href)
	if err != nil {
		return record.Record{}, false
	}

	var date time.Time
	if dt, ok := sel.Find("time[datetime]").First().Attr("datetime"); ok {
		date = parseHTMLDate(dt)
	}

	summary := strings.TrimSpace(sel.Find("p").First().Text())

	return record.Record{
		Title:   title,
		URL:     abs.String(),
		Date:    date,
		Origin:  origin,
		Summary: truncate(summary, 300),
	}, true
}

// parseHTMLDate accepts the datetime formats blogs actually emit.
// Unparseable values yield the zero time, keeping the record dateless.
func parseHTMLDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
