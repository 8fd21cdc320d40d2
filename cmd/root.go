// Package cmd defines the CLI commands for the sitegraph executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/sitegraph-crawler/internal/config"
	"github.com/JakeFAU/sitegraph-crawler/internal/logging"
	"github.com/JakeFAU/sitegraph-crawler/internal/metrics"
	"github.com/JakeFAU/sitegraph-crawler/internal/store/memory"
)

var cfgFile string

// appKeyType is the key for storing the App in the command context.
type appKeyType string

const appKey appKeyType = "app"

// App holds the shared services built once per invocation.
type App struct {
	Cfg   config.Config
	Store *memory.Store
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitegraph",
		Short: "Graph-driven URL discovery, batched dispatch, and bounded crawling.",
		Long: `sitegraph walks a site's structural graph to build a queue of URL
bundles, dispatches the bundles in bounded concurrent batches, classifies the
outcomes, and can run an independent depth/page-bounded crawl from a seed URL.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logging.Init(cfg.Logging.Development); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			metrics.Init()

			app := &App{Cfg: cfg, Store: memory.New()}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},

		PersistentPostRun: func(*cobra.Command, []string) {
			// Best-effort flush; stderr sync errors are expected on some platforms.
			_ = logging.L.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml if present)")

	cmd.AddCommand(newDispatchCmd())
	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey).(*App)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// Execute is the main entry point. Interrupts cancel the command context so
// in-flight dispatch and crawl sessions stop at their next suspension point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.L.Error("command execution failed", zap.Error(err))
		os.Exit(1)
	}
}
