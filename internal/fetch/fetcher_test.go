// Package fetch contains tests for the Colly-backed fetcher.
package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return New(Config{UserAgent: "sitegraph-test", Timeout: 5 * time.Second}, zap.NewNop())
}

// TestFetchStatusSuccess classifies a 200 as a success carrying the URL.
func TestFetchStatusSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := newTestFetcher(t).FetchStatus(context.Background(), srv.URL)
	assert.Equal(t, KindSuccess, res.Kind)
	assert.Equal(t, srv.URL, res.URL)
}

// TestFetchStatusFailure classifies any non-200 status as a structured
// failure record.
func TestFetchStatusFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	res := newTestFetcher(t).FetchStatus(context.Background(), srv.URL)
	assert.Equal(t, KindFailure, res.Kind)
	assert.Equal(t, Failure{Status: http.StatusNotFound}, res.Failure)
}

// TestFetchStatusTransportError captures connection failures as error-tagged
// results instead of propagating them.
func TestFetchStatusTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	res := newTestFetcher(t).FetchStatus(context.Background(), deadURL)
	assert.Equal(t, KindError, res.Kind)
	assert.Error(t, res.Err)
}

// TestFetchContentHTML returns the raw body text in html mode.
func TestFetchContentHTML(t *testing.T) {
	t.Parallel()

	const body = "<html><body>hello</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	content, err := newTestFetcher(t).FetchContent(context.Background(), ContentRequest{
		URL:  srv.URL,
		Mode: ModeHTML,
	})
	require.NoError(t, err)
	assert.Equal(t, body, content.Text)
}

// TestFetchContentJSON decodes the body in json mode.
func TestFetchContentJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTC","count":3}`))
	}))
	defer srv.Close()

	content, err := newTestFetcher(t).FetchContent(context.Background(), ContentRequest{
		URL:  srv.URL,
		Mode: ModeJSON,
	})
	require.NoError(t, err)
	decoded, ok := content.JSON.(map[string]any)
	require.True(t, ok, "expected decoded JSON object, got %T", content.JSON)
	assert.Equal(t, "BTC", decoded["symbol"])
}

// TestFetchContentJSONDecodeError reports undecodable bodies as fetch
// errors, regardless of status.
func TestFetchContentJSONDecodeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(t).FetchContent(context.Background(), ContentRequest{
		URL:  srv.URL,
		Mode: ModeJSON,
	})
	require.Error(t, err)
}

// TestFetchContentParamsAndHeaders forwards query parameters and request
// headers.
func TestFetchContentParamsAndHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "btc", r.URL.Query().Get("q"))
		assert.Equal(t, "token-123", r.Header.Get("X-Api-Key"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	content, err := newTestFetcher(t).FetchContent(context.Background(), ContentRequest{
		URL:     srv.URL,
		Mode:    ModeHTML,
		Params:  url.Values{"q": {"btc"}},
		Headers: http.Header{"X-Api-Key": {"token-123"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", content.Text)
}

// TestFetchContentUnsupportedMode rejects unknown modes up front.
func TestFetchContentUnsupportedMode(t *testing.T) {
	t.Parallel()

	_, err := newTestFetcher(t).FetchContent(context.Background(), ContentRequest{
		URL:  "http://example.invalid",
		Mode: Mode("xml"),
	})
	require.Error(t, err)
}

// TestFetchContentNonSuccessStatusStillDecodes verifies content mode does
// not classify by status: a 500 with a readable body yields that body.
func TestFetchContentNonSuccessStatusStillDecodes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	content, err := newTestFetcher(t).FetchContent(context.Background(), ContentRequest{
		URL:  srv.URL,
		Mode: ModeHTML,
	})
	require.NoError(t, err)
	assert.Contains(t, content.Text, "maintenance")
}
