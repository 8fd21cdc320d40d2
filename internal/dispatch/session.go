// Package dispatch consumes the starting queue in bounded concurrent batches
// and classifies the per-URL outcomes.
package dispatch

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
	"github.com/JakeFAU/sitegraph-crawler/internal/metrics"
)

// Session owns the classified output queues of one dispatch run. The queues
// are append-only for the session's lifetime; independent sessions never
// share state.
type Session struct {
	Ready    []string
	NotReady []fetch.Failure
	Dropped  int

	logger *zap.Logger
}

// NewSession creates an empty Session.
func NewSession(logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{logger: logger}
}

// Classify partitions a batch of results in order: successes append to the
// ready queue, structured failures to the not-ready queue. Anything else is
// logged and dropped; it joins neither queue.
func (s *Session) Classify(results []fetch.Result) {
	for _, res := range results {
		switch res.Kind {
		case fetch.KindSuccess:
			s.Ready = append(s.Ready, res.URL)
			metrics.ObserveFetchResult("ready")
		case fetch.KindFailure:
			s.NotReady = append(s.NotReady, res.Failure)
			metrics.ObserveFetchResult("not_ready")
		default:
			s.Dropped++
			s.logger.Warn("unclassifiable fetch result",
				zap.String("url", res.URL),
				zap.String("result", res.String()),
				zap.Error(res.Err),
			)
			metrics.ObserveFetchResult("dropped")
		}
	}
}
