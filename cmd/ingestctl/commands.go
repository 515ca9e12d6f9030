package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/news-ingestor/internal/app"
	"github.com/samvad-hq/news-ingestor/internal/config"
	"github.com/samvad-hq/news-ingestor/internal/crawler"
	"github.com/samvad-hq/news-ingestor/internal/logger"
)

var (
	ingestor *app.Ingestor
	cfg      *config.Config
	force    bool
)

var rootCmd = &cobra.Command{
	Use:   "ingestctl",
	Short: "One-shot administration of the news ingestor",
	Long: `ingestctl runs single ingestor operations against the configured store.

Example usage:
  ingestctl crawl              # Crawl every enabled source once
  ingestctl crawl 네이버        # Crawl one source by key, name or alias
  ingestctl cleanup --days 7   # Delete articles older than a week
  ingestctl stats              # Show stored article counts`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log, err := logger.Init(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		ingestor, err = app.New(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("init ingestor: %w", err)
		}
		return nil
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [source]",
	Short: "Crawl all sources, or one source by key, name or alias",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if force {
			ingestor.SetCrawlingEnabled(true)
		}
		ctx := cmd.Context()
		if len(args) == 1 {
			saved, err := ingestor.CrawlSource(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"source": args[0],
				"saved":  len(saved),
				"items":  saved,
			})
		}
		report, err := ingestor.Crawl(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), summarize(report))
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete articles older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")
		if !cmd.Flags().Changed("days") {
			days = cfg.RetentionDays
		}
		n, err := ingestor.Cleanup(cmd.Context(), days)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": n, "days": days})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show total, today's and per-source article counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		stats, err := ingestor.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	rootCmd.AddCommand(crawlCmd, cleanupCmd, statsCmd)

	crawlCmd.Flags().BoolVar(&force, "force", false, "crawl even when CRAWL_ENABLED is false")
	cleanupCmd.Flags().Int("days", 30, "retention window in days (default from RETENTION_DAYS)")
}

func summarize(r crawler.Report) map[string]any {
	return map[string]any{
		"saved":          r.Saved,
		"candidates":     r.Candidates,
		"duplicates":     r.Duplicates,
		"failed":         r.Failed,
		"failed_sources": r.FailedSources(),
		"elapsed_ms":     r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
