// Package fetch performs single HTTP GETs via Colly, in two response modes:
// status classification and content retrieval.
package fetch

import "fmt"

// Kind tags a Result. The tag is assigned once at the fetcher boundary so
// downstream code never inspects runtime types.
type Kind int

const (
	// KindUnknown marks a result of unrecognized shape.
	KindUnknown Kind = iota
	// KindSuccess marks a URL that answered 200.
	KindSuccess
	// KindFailure marks a URL that answered with a non-200 status.
	KindFailure
	// KindError marks a transport-level failure (timeout, DNS, reset).
	KindError
)

// Failure is the structured record kept for a non-200 response.
type Failure struct {
	Status int `json:"status"`
}

// Result is the tagged union produced per status-mode request.
type Result struct {
	Kind    Kind
	URL     string
	Failure Failure
	Err     error
}

// Success builds a Result for a URL that answered 200.
func Success(url string) Result {
	return Result{Kind: KindSuccess, URL: url}
}

// StatusFailure builds a Result for a non-200 status.
func StatusFailure(url string, status int) Result {
	return Result{Kind: KindFailure, URL: url, Failure: Failure{Status: status}}
}

// TransportError builds a Result for a request that never produced a status.
func TransportError(url string, err error) Result {
	return Result{Kind: KindError, URL: url, Err: err}
}

// String renders the result for logs.
func (r Result) String() string {
	switch r.Kind {
	case KindSuccess:
		return r.URL
	case KindFailure:
		return fmt.Sprintf("{status: %d}", r.Failure.Status)
	case KindError:
		return fmt.Sprintf("error(%v)", r.Err)
	default:
		return "unknown"
	}
}
