package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitegraph-crawler/internal/dispatch"
	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
	"github.com/JakeFAU/sitegraph-crawler/internal/logging"
	"github.com/JakeFAU/sitegraph-crawler/internal/sitegraph"
	"github.com/JakeFAU/sitegraph-crawler/internal/store/memory"
)

// newDispatchCmd creates the 'dispatch' subcommand: build the starting queue
// from the configured site graph and dispatch it in batches.
func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Builds the seed queue from the site graph and dispatches it",
		Long: `Walks the configured site graph depth-first, collects URL bundles per
node payload, and fetches each bundle in bounded concurrent batches. URLs
answering 200 land in the ready queue; other statuses in the not-ready queue.`,
		RunE: runDispatchCommand,
	}
}

func runDispatchCommand(cmd *cobra.Command, _ []string) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	site, err := sitegraph.LoadFile(app.Cfg.SiteFile)
	if err != nil {
		return fmt.Errorf("load site graph: %w", err)
	}

	strategy := sitegraph.KeepLast
	if app.Cfg.Dispatch.KeepAllBundles {
		strategy = sitegraph.KeepAll
	}
	queue := sitegraph.SeedQueue(site, strategy, logging.L)
	logging.L.Info("seed queue built",
		zap.String("site_file", app.Cfg.SiteFile),
		zap.Int("bundles", queue.Len()),
	)

	runID, err := app.Store.Begin(cmd.Context(), memory.RunKindDispatch)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	fetcher := fetch.New(fetch.Config{
		UserAgent: app.Cfg.Fetch.UserAgent,
		Timeout:   app.Cfg.FetchTimeout(),
	}, logging.L)

	session, dispatchErr := dispatch.New(fetcher, logging.L).
		Dispatch(cmd.Context(), queue, app.Cfg.Dispatch.BatchSize)
	if session != nil {
		if err := app.Store.FinishDispatch(
			cmd.Context(), runID,
			session.Ready, session.NotReady, session.Dropped,
		); err != nil {
			logging.L.Warn("record dispatch run failed", zap.Error(err))
		}
		logging.L.Info("dispatch run recorded",
			zap.String("run_id", runID),
			zap.Int("ready", len(session.Ready)),
			zap.Int("not_ready", len(session.NotReady)),
			zap.Int("dropped", session.Dropped),
		)
	}
	if dispatchErr != nil {
		return fmt.Errorf("dispatch: %w", dispatchErr)
	}
	return nil
}
