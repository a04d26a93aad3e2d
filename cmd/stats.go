package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jblairy/techwatch/internal/config"
	"github.com/jblairy/techwatch/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Open(config.DatabasePath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		count, size, err := db.Stats()
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		records, meta, err := db.Load()
		if err != nil {
			return fmt.Errorf("loading database: %w", err)
		}

		fmt.Printf("Database: %s\n", db.Path())
		fmt.Printf("Articles: %d\n", count)
		fmt.Printf("Sources: %d\n", len(meta.Sources))
		for _, src := range meta.Sources {
			n := 0
			for _, r := range records {
				if r.Origin == src {
					n++
				}
			}
			fmt.Printf("  %s: %d\n", src, n)
		}
		if meta.DateRange != nil {
			fmt.Printf("Date range: %s to %s (%d days)\n",
				meta.DateRange.Earliest, meta.DateRange.Latest, meta.DateRange.DaysRange)
		}
		if !meta.GeneratedAt.IsZero() {
			fmt.Printf("Last updated: %s\n", meta.GeneratedAt.Format("2006-01-02 15:04"))
		}
		fmt.Printf("Size: %s\n", formatBytes(size))
		return nil
	},
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
