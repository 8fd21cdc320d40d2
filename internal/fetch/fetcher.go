package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Mode selects how a content-mode response body is decoded.
type Mode string

// Supported content modes.
const (
	ModeHTML Mode = "html"
	ModeJSON Mode = "json"
)

// ContentRequest captures everything needed for a content-mode GET.
type ContentRequest struct {
	URL     string
	Mode    Mode
	Params  url.Values
	Headers http.Header
}

// Content is the decoded body of a content-mode GET.
type Content struct {
	Mode Mode
	Text string
	JSON any
}

// Config controls fetcher behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher issues single GETs through a shared Colly collector. Each request
// runs on a clone of the base collector so hook state never leaks between
// calls.
type Fetcher struct {
	cfg    Config
	base   *colly.Collector
	logger *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	opts := []colly.CollectorOption{}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	base := colly.NewCollector(opts...)
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        128,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:    cfg,
		base:   base,
		logger: logger,
	}
}

// FetchStatus issues a GET and classifies the outcome: a 200 yields a
// success carrying the URL, any other status yields a structured failure, and
// transport errors are captured as error-tagged results. It never returns an
// unhandled fault to the caller.
func (f *Fetcher) FetchStatus(ctx context.Context, rawURL string) Result {
	resp, err := f.do(ctx, rawURL, nil, nil)
	if err != nil {
		f.logger.Debug("status fetch failed",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return TransportError(rawURL, err)
	}
	if resp.status == http.StatusOK {
		return Success(rawURL)
	}
	return StatusFailure(rawURL, resp.status)
}

// FetchContent issues a GET with optional query parameters and headers and
// decodes the body per the requested mode. Status codes are not classified
// here; an undecodable body is reported as a fetch error.
func (f *Fetcher) FetchContent(ctx context.Context, req ContentRequest) (Content, error) {
	switch req.Mode {
	case ModeHTML, ModeJSON:
	default:
		return Content{}, fmt.Errorf("unsupported content mode %q", req.Mode)
	}

	resp, err := f.do(ctx, req.URL, req.Params, req.Headers)
	if err != nil {
		return Content{}, fmt.Errorf("fetch content: %w", err)
	}

	if req.Mode == ModeJSON {
		var decoded any
		if err := json.Unmarshal(resp.body, &decoded); err != nil {
			return Content{}, fmt.Errorf("decode json body: %w", err)
		}
		return Content{Mode: ModeJSON, JSON: decoded}, nil
	}
	return Content{Mode: ModeHTML, Text: string(resp.body)}, nil
}

type response struct {
	status int
	body   []byte
}

// do runs one GET on a collector clone, honoring ctx at the await point. A
// response carrying a status code is returned as data even when Colly flags
// it as an HTTP error; only transport-level failures surface as errors.
func (f *Fetcher) do(ctx context.Context, rawURL string, params url.Values, headers http.Header) (response, error) {
	target, err := withParams(rawURL, params)
	if err != nil {
		return response{}, fmt.Errorf("build request url: %w", err)
	}

	collector := f.base.Clone()

	var (
		resp     response
		got      bool
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for key, values := range headers {
			for _, v := range values {
				r.Headers.Add(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		resp = response{
			status: r.StatusCode,
			body:   append([]byte(nil), r.Body...),
		}
		got = true
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			resp = response{
				status: r.StatusCode,
				body:   append([]byte(nil), r.Body...),
			}
			got = true
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		visitErr := collector.Visit(target)
		collector.Wait()
		done <- visitErr
	}()

	select {
	case <-ctx.Done():
		return response{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		switch {
		case got:
			return resp, nil
		case fetchErr != nil:
			return response{}, fetchErr
		case visitErr != nil:
			return response{}, visitErr
		default:
			return response{}, errors.New("fetch produced no response")
		}
	}
}

func withParams(rawURL string, params url.Values) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
