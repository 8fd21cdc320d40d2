// Package memory keeps run records for the process lifetime. It is the only
// persistence layer; results never outlive the process.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
)

// RunKind distinguishes dispatch sessions from crawl sessions.
type RunKind string

// Run kinds stored per record.
const (
	RunKindDispatch RunKind = "dispatch"
	RunKindCrawl    RunKind = "crawl"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// RunRecord summarizes one dispatch or crawl session.
type RunRecord struct {
	ID       string    `json:"id"`
	Kind     RunKind   `json:"kind"`
	Started  time.Time `json:"started_at"`
	Finished time.Time `json:"finished_at"`

	// Dispatch fields.
	Ready    []string        `json:"ready,omitempty"`
	NotReady []fetch.Failure `json:"not_ready,omitempty"`
	Dropped  int             `json:"dropped,omitempty"`

	// Crawl fields.
	PagesVisited int                 `json:"pages_visited,omitempty"`
	Links        map[string][]string `json:"links,omitempty"`
}

// Store is an in-memory run store guarded by a RWMutex.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]RunRecord
	order []string

	// Injection points for tests.
	now   func() time.Time
	newID func() (string, error)
}

// New constructs a Store.
func New() *Store {
	return &Store{
		runs: make(map[string]RunRecord),
		now:  func() time.Time { return time.Now().UTC() },
		newID: func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

// Begin allocates a run ID and records the start time.
func (s *Store) Begin(_ context.Context, kind RunKind) (string, error) {
	id, err := s.newID()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id] = RunRecord{ID: id, Kind: kind, Started: s.now()}
	s.order = append(s.order, id)
	return id, nil
}

// FinishDispatch records the outcome of a dispatch session.
func (s *Store) FinishDispatch(_ context.Context, id string, ready []string, notReady []fetch.Failure, dropped int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	rec.Finished = s.now()
	rec.Ready = append([]string(nil), ready...)
	rec.NotReady = append([]fetch.Failure(nil), notReady...)
	rec.Dropped = dropped
	s.runs[id] = rec
	return nil
}

// FinishCrawl records the outcome of a crawl session.
func (s *Store) FinishCrawl(_ context.Context, id string, pagesVisited int, links map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	rec.Finished = s.now()
	rec.PagesVisited = pagesVisited
	rec.Links = make(map[string][]string, len(links))
	for page, outbound := range links {
		rec.Links[page] = append([]string(nil), outbound...)
	}
	s.runs[id] = rec
	return nil
}

// Get fetches one run record by ID.
func (s *Store) Get(_ context.Context, id string) (RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[id]
	if !ok {
		return RunRecord{}, ErrRunNotFound
	}
	return rec, nil
}

// List returns every run record in insertion order.
func (s *Store) List(_ context.Context) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.runs[id])
	}
	return out
}
