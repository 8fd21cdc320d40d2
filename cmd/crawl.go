package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitegraph-crawler/internal/crawl"
	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
	"github.com/JakeFAU/sitegraph-crawler/internal/logging"
	"github.com/JakeFAU/sitegraph-crawler/internal/store/memory"
)

// newCrawlCmd creates the 'crawl' subcommand: a bounded breadth-first crawl
// from one seed URL.
func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Runs a depth- and page-bounded crawl from a seed URL",
		Long: `Crawls breadth-first from the seed URL with the configured number of
workers, visiting at most max_pages pages and following links at most
max_depth hops from the seed. Prints a map of page to discovered links.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, args []string) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	startURL := app.Cfg.Crawl.StartURL
	if len(args) == 1 {
		startURL = args[0]
	}
	if startURL == "" {
		return errors.New("no start URL: pass one as an argument or set crawl.start_url")
	}

	runID, err := app.Store.Begin(cmd.Context(), memory.RunKindCrawl)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		UserAgent: app.Cfg.Fetch.UserAgent,
		Timeout:   app.Cfg.FetchTimeout(),
	}, logging.L)

	crawler := crawl.New(fetcher, crawl.Config{
		StartURL: startURL,
		MaxPages: app.Cfg.Crawl.MaxPages,
		MaxDepth: app.Cfg.Crawl.MaxDepth,
	}, logging.L)

	results, runErr := crawler.Run(cmd.Context(), app.Cfg.Crawl.Workers)
	if results != nil {
		visited := crawler.Visited()
		if err := app.Store.FinishCrawl(cmd.Context(), runID, len(visited), results); err != nil {
			logging.L.Warn("record crawl run failed", zap.Error(err))
		}
		logging.L.Info("crawl run recorded",
			zap.String("run_id", runID),
			zap.String("start_url", startURL),
			zap.Int("pages_visited", len(visited)),
		)
		for page, links := range results {
			logging.L.Info("page links",
				zap.String("page", page),
				zap.Strings("links", links),
			)
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("crawl: %w", runErr)
	}
	return nil
}
