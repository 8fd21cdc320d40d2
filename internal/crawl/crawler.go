// Package crawl implements the depth- and page-bounded breadth-first crawler.
package crawl

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
	"github.com/JakeFAU/sitegraph-crawler/internal/metrics"
)

// ContentFetcher retrieves page content. Satisfied by fetch.Fetcher.
type ContentFetcher interface {
	FetchContent(ctx context.Context, req fetch.ContentRequest) (fetch.Content, error)
}

// Config bounds a crawl session.
type Config struct {
	StartURL string
	MaxPages int
	MaxDepth int
}

// Validate enforces usable bounds.
func (c Config) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("start url must be set")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be > 0, got %d", c.MaxPages)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0, got %d", c.MaxDepth)
	}
	return nil
}

// Crawler runs one breadth-first crawl from a seed URL: a shared frontier of
// (url, depth) entries, a visited set, and a result map of page to discovered
// links. A Crawler is single-use; build a new one per session.
type Crawler struct {
	fetcher  ContentFetcher
	cfg      Config
	logger   *zap.Logger
	frontier *frontier

	mu      sync.Mutex
	visited map[string]struct{}
	results map[string][]string
}

// New creates a Crawler seeded with the configured start URL at depth 0.
func New(fetcher ContentFetcher, cfg Config, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Crawler{
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   logger,
		frontier: newFrontier(),
		visited:  make(map[string]struct{}),
		results:  make(map[string][]string),
	}
	c.frontier.push(entry{url: cfg.StartURL, depth: 0})
	return c
}

// Run executes the crawl with numWorkers concurrent workers and returns the
// result map once every worker has observed termination. Termination is
// reached when the frontier drains, the page bound fills, or ctx ends;
// cancellation is honored at the frontier pop and at each fetch.
func (c *Crawler) Run(ctx context.Context, numWorkers int) (map[string][]string, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			c.frontier.close()
		case <-stop:
		}
	}()

	var g errgroup.Group
	for range numWorkers {
		g.Go(func() error {
			c.work(ctx)
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Info("crawl finished",
		zap.String("start_url", c.cfg.StartURL),
		zap.Int("pages_visited", len(c.visited)),
		zap.Int("pages_with_links", len(c.results)),
	)
	return c.results, ctx.Err()
}

// Visited returns a snapshot of the visited set.
func (c *Crawler) Visited() map[string]struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]struct{}, len(c.visited))
	for url := range c.visited {
		out[url] = struct{}{}
	}
	return out
}

func (c *Crawler) work(ctx context.Context) {
	for {
		e, ok := c.frontier.pop()
		if !ok {
			return
		}
		c.step(ctx, e)
		c.frontier.done()
	}
}

// step processes one frontier entry: claim the URL, fetch it, and expand its
// links when depth allows.
func (c *Crawler) step(ctx context.Context, e entry) {
	claim := c.tryVisit(e)
	if claim == claimFull {
		// Page bound reached; terminate the whole session.
		c.frontier.close()
		return
	}
	if claim == claimSkip {
		return
	}

	content, err := c.fetcher.FetchContent(ctx, fetch.ContentRequest{
		URL:  e.url,
		Mode: fetch.ModeHTML,
	})
	if err != nil || content.Text == "" {
		// The page stays visited so it is never refetched, but it
		// contributes no result entry and no further links.
		c.logger.Debug("page yielded no content",
			zap.String("url", e.url),
			zap.Int("depth", e.depth),
			zap.Error(err),
		)
		metrics.ObserveCrawlPage("no_content")
		return
	}
	metrics.ObserveCrawlPage("ok")

	if e.depth >= c.cfg.MaxDepth {
		return
	}
	links := ExtractLinks(content.Text, e.url)
	c.record(e.url, links)
	for _, link := range links {
		if !c.isVisited(link) {
			c.frontier.push(entry{url: link, depth: e.depth + 1})
		}
	}
}

type claimResult int

const (
	claimVisit claimResult = iota
	claimSkip
	claimFull
)

// tryVisit atomically claims a URL: the visited check, the page-count bound,
// and the insert happen under one lock so two workers can never fetch the
// same URL and the visited set can never exceed MaxPages.
func (c *Crawler) tryVisit(e entry) claimResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.visited[e.url]; seen {
		return claimSkip
	}
	if e.depth > c.cfg.MaxDepth {
		return claimSkip
	}
	if len(c.visited) >= c.cfg.MaxPages {
		return claimFull
	}
	c.visited[e.url] = struct{}{}
	return claimVisit
}

func (c *Crawler) isVisited(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, seen := c.visited[url]
	return seen
}

func (c *Crawler) record(url string, links []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[url] = links
}
