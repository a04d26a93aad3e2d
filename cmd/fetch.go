package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jblairy/techwatch/internal/config"
	"github.com/jblairy/techwatch/internal/feed"
	"github.com/jblairy/techwatch/internal/query"
	"github.com/jblairy/techwatch/internal/record"
	"github.com/jblairy/techwatch/internal/storage"
)

var (
	flagFetchDays    int
	flagFetchSources []string
	flagFetchSilent  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Crawl all sources and update the database",
	Long: `Fetch articles from the configured sources and merge them into the
local database. Suitable for cron: with --silent only errors reach the
console, and the exit code reports whether anything was fetched.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().IntVar(&flagFetchDays, "days", -1, "only keep articles published within the last N days (-1 keeps everything)")
	fetchCmd.Flags().StringSliceVar(&flagFetchSources, "sources", nil, "restrict the crawl to these source names")
	fetchCmd.Flags().BoolVar(&flagFetchSilent, "silent", false, "suppress progress output")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	sources := cfg.EnabledSources()
	if len(flagFetchSources) > 0 {
		sources = selectSources(sources, flagFetchSources)
		if len(sources) == 0 {
			return fmt.Errorf("no enabled source matches %v", flagFetchSources)
		}
	}

	say := func(format string, a ...any) {
		if !flagFetchSilent {
			fmt.Printf(format, a...)
		}
	}

	say("Fetching %d source(s)...\n", len(sources))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	result := feed.FetchAll(ctx, sources)

	if result.Err != nil {
		fmt.Printf("[warn] %v\n", result.Err)
	}

	records := result.Records
	if flagFetchDays >= 0 {
		records = withinDays(records, flagFetchDays, time.Now())
	}

	if len(records) == 0 {
		if result.Err != nil {
			return fmt.Errorf("crawl produced no articles")
		}
		say("No articles in range.\n")
		return nil
	}

	db, err := storage.Open(config.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	added, err := db.Save(records)
	if err != nil {
		return fmt.Errorf("saving articles: %w", err)
	}

	say("Fetched %d article(s), %d new.\n", len(records), added)
	return nil
}

func selectSources(sources []config.Source, names []string) []config.Source {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []config.Source
	for _, s := range sources {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out
}

// withinDays keeps records published inside the last daysBack days.
// Dateless records are dropped; a bounded crawl window implies dated
// articles only.
func withinDays(records []record.Record, daysBack int, now time.Time) []record.Record {
	window := query.FromDaysBack(daysBack, now)
	var out []record.Record
	for _, r := range records {
		if r.HasDate() && window.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}
