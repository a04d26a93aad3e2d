package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jblairy/techwatch/internal/config"
	"github.com/jblairy/techwatch/internal/feed"
	"github.com/jblairy/techwatch/internal/logging"
	"github.com/jblairy/techwatch/internal/storage"
	"github.com/jblairy/techwatch/internal/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagRefresh bool
)

var rootCmd = &cobra.Command{
	Use:   "techwatch",
	Short: "TUI technology watch browser",
	Long:  "techwatch collects articles from configured sources into a local database and browses them with date and source filters.",
	RunE:  runBrowser,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().BoolVar(&flagRefresh, "refresh", false, "fetch all sources before launching")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("techwatch %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func runBrowser(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logFile, err := logging.Setup(config.LogPath(), cfg.LogLevel)
	if err != nil {
		logger = logging.Discard()
	} else {
		defer logFile.Close()
	}

	db, err := storage.Open(config.DatabasePath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if flagRefresh {
		fmt.Println("Fetching sources...")
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		result := feed.FetchAll(ctx, cfg.EnabledSources())
		cancel()

		if result.Err != nil {
			fmt.Printf("  [warn] %v\n", result.Err)
		}
		if len(result.Records) > 0 {
			added, err := db.Save(result.Records)
			if err != nil {
				return fmt.Errorf("saving articles: %w", err)
			}
			fmt.Printf("  %d new article(s)\n", added)
		}
	}

	records, meta, err := db.Load()
	if err != nil {
		return fmt.Errorf("loading database: %w", err)
	}

	return tui.Run(tui.RunOpts{
		Cfg:     cfg,
		DB:      db,
		Records: records,
		Meta:    meta,
		Logger:  logger,
	})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
