package rest

import (
	"context"
	"fmt"
	"net/http"

	"chatapp-client/internal/async"
)

// Request is one call to the platform API. Route is the rate limit bucket
// template of Path: major parameters filled in, minor ones left as
// placeholders.
type Request struct {
	Method string
	Route  string
	Path   string
	Body   []byte
	Reason string
}

func (r Request) bucket() string {
	return r.Method + " " + r.Route
}

type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport sends requests. The returned future resolves exactly once,
// with a *Error when the platform rejected the call.
type Transport interface {
	Send(ctx context.Context, req Request) *async.Future[Reply]
}

// Error is a rejection reported by the platform.
type Error struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Route   string `json:"-"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Route, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s (code %d)", e.Route, e.Status, e.Message, e.Code)
}
