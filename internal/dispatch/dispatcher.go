package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
	"github.com/JakeFAU/sitegraph-crawler/internal/metrics"
	"github.com/JakeFAU/sitegraph-crawler/internal/sitegraph"
)

// StatusFetcher issues a single status-mode GET. Satisfied by fetch.Fetcher.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, url string) fetch.Result
}

// Dispatcher drains a starting queue bundle by bundle, fanning each bundle
// out in batches of at most batchSize concurrent fetches.
type Dispatcher struct {
	fetcher StatusFetcher
	logger  *zap.Logger
}

// New creates a Dispatcher.
func New(fetcher StatusFetcher, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{fetcher: fetcher, logger: logger}
}

// Dispatch pops bundles in stack order until the queue is empty. Each bundle
// is split into consecutive batches; a batch's requests run concurrently and
// the dispatcher waits for the whole batch before starting the next, so at
// most batchSize fetches are ever in flight. Per-item failures are captured
// as data and never cancel sibling fetches. The classified session is
// returned even when the context ends early.
func (d *Dispatcher) Dispatch(ctx context.Context, queue *sitegraph.Queue, batchSize int) (*Session, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be > 0, got %d", batchSize)
	}

	session := NewSession(d.logger)
	for {
		bundle, ok := queue.Pop()
		if !ok {
			break
		}
		if len(bundle) == 0 {
			continue
		}
		metrics.ObserveBundle()
		d.logger.Info("dispatching bundle",
			zap.Int("urls", len(bundle)),
			zap.Int("batch_size", batchSize),
		)

		for start := 0; start < len(bundle); start += batchSize {
			if err := ctx.Err(); err != nil {
				return session, fmt.Errorf("dispatch canceled: %w", err)
			}
			end := min(start+batchSize, len(bundle))
			session.Classify(d.fetchBatch(ctx, bundle[start:end]))
		}
	}
	d.logger.Info("dispatch session finished",
		zap.Int("ready", len(session.Ready)),
		zap.Int("not_ready", len(session.NotReady)),
		zap.Int("dropped", session.Dropped),
	)
	return session, nil
}

// fetchBatch issues every request in the batch concurrently and waits for all
// of them. Results land in a pre-allocated slice so classification sees the
// original per-URL order.
func (d *Dispatcher) fetchBatch(ctx context.Context, batch []string) []fetch.Result {
	metrics.ObserveBatch()
	results := make([]fetch.Result, len(batch))

	var g errgroup.Group
	for i, url := range batch {
		g.Go(func() error {
			results[i] = d.fetcher.FetchStatus(ctx, url)
			return nil
		})
	}
	// Workers never return errors; failures are already data in results.
	_ = g.Wait()
	return results
}
