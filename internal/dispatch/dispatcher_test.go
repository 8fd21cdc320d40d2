package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/sitegraph-crawler/internal/fetch"
	"github.com/JakeFAU/sitegraph-crawler/internal/sitegraph"
)

// countingFetcher tracks concurrent in-flight fetches and records call order.
type countingFetcher struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    []string
	delay    time.Duration
	respond  func(url string) fetch.Result
}

func (f *countingFetcher) FetchStatus(_ context.Context, url string) fetch.Result {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()

	if f.respond != nil {
		return f.respond(url)
	}
	return fetch.Success(url)
}

// TestDispatchBoundsConcurrency issues a 7-URL bundle with batchSize 3 and
// asserts the waves are 3, 3, 1 with never more than 3 in flight.
func TestDispatchBoundsConcurrency(t *testing.T) {
	t.Parallel()

	bundle := make([]string, 7)
	for i := range bundle {
		bundle[i] = fmt.Sprintf("http://u%d", i)
	}
	queue := &sitegraph.Queue{}
	queue.Push(bundle)

	fetcher := &countingFetcher{delay: 20 * time.Millisecond}
	session, err := New(fetcher, zap.NewNop()).Dispatch(context.Background(), queue, 3)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if fetcher.peak > 3 {
		t.Fatalf("peak in-flight fetches = %d, want <= 3", fetcher.peak)
	}
	if len(session.Ready) != 7 {
		t.Fatalf("Ready length = %d, want 7", len(session.Ready))
	}
	// Order within the session follows batch boundaries: 0-2, 3-5, 6.
	if !reflect.DeepEqual(session.Ready, bundle) {
		t.Fatalf("Ready = %v, want per-URL order %v", session.Ready, bundle)
	}
}

// TestDispatchStackOrder processes the most recently pushed bundle first.
func TestDispatchStackOrder(t *testing.T) {
	t.Parallel()

	queue := &sitegraph.Queue{}
	queue.Push([]string{"http://old"})
	queue.Push([]string{"http://new"})

	fetcher := &countingFetcher{}
	session, err := New(fetcher, zap.NewNop()).Dispatch(context.Background(), queue, 2)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	want := []string{"http://new", "http://old"}
	if !reflect.DeepEqual(session.Ready, want) {
		t.Fatalf("Ready = %v, want %v", session.Ready, want)
	}
}

// TestDispatchSkipsEmptyBundles drains empty bundles without fetching.
func TestDispatchSkipsEmptyBundles(t *testing.T) {
	t.Parallel()

	queue := &sitegraph.Queue{}
	queue.Push(nil)
	queue.Push([]string{})

	fetcher := &countingFetcher{}
	session, err := New(fetcher, zap.NewNop()).Dispatch(context.Background(), queue, 4)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(fetcher.calls) != 0 {
		t.Fatalf("expected no fetches, got %v", fetcher.calls)
	}
	if len(session.Ready)+len(session.NotReady) != 0 {
		t.Fatal("expected empty session queues")
	}
}

// TestDispatchMixedOutcomes classifies per item without canceling siblings.
func TestDispatchMixedOutcomes(t *testing.T) {
	t.Parallel()

	queue := &sitegraph.Queue{}
	queue.Push([]string{"http://ok1", "http://bad", "http://down", "http://ok2"})

	fetcher := &countingFetcher{respond: func(url string) fetch.Result {
		switch {
		case strings.Contains(url, "bad"):
			return fetch.StatusFailure(url, 503)
		case strings.Contains(url, "down"):
			return fetch.TransportError(url, context.DeadlineExceeded)
		default:
			return fetch.Success(url)
		}
	}}

	session, err := New(fetcher, zap.NewNop()).Dispatch(context.Background(), queue, 4)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if !reflect.DeepEqual(session.Ready, []string{"http://ok1", "http://ok2"}) {
		t.Fatalf("Ready = %v", session.Ready)
	}
	if !reflect.DeepEqual(session.NotReady, []fetch.Failure{{Status: 503}}) {
		t.Fatalf("NotReady = %v", session.NotReady)
	}
	if session.Dropped != 1 {
		t.Fatalf("Dropped = %d, want 1", session.Dropped)
	}
}

// TestDispatchInvalidBatchSize rejects non-positive batch sizes.
func TestDispatchInvalidBatchSize(t *testing.T) {
	t.Parallel()

	if _, err := New(&countingFetcher{}, zap.NewNop()).Dispatch(context.Background(), &sitegraph.Queue{}, 0); err == nil {
		t.Fatal("expected error for batch size 0")
	}
}

// TestDispatchHonorsCancellation stops between batches and still returns the
// partial session.
func TestDispatchHonorsCancellation(t *testing.T) {
	t.Parallel()

	queue := &sitegraph.Queue{}
	queue.Push([]string{"http://a", "http://b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session, err := New(&countingFetcher{}, zap.NewNop()).Dispatch(ctx, queue, 1)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if session == nil {
		t.Fatal("expected partial session to be returned")
	}
}
