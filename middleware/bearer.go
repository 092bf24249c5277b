package middleware

import (
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type sessionSource interface {
	Session() goSession.Session
}

// BearerOptions configures [Bearer].
type BearerOptions struct {
	// OnUnauthorized is called after a request that carried the session token
	// got a 401. The response body is still unread.
	OnUnauthorized func(req *http.Request, resp *http.Response)
}

// BearerTransport is returned by [Bearer].
type BearerTransport struct {
	source         sessionSource
	base           http.RoundTripper
	onUnauthorized func(*http.Request, *http.Response)
}

// Bearer wraps base so each request carries "Authorization: Bearer <token>"
// from the manager's current snapshot. Requests that already set an
// Authorization header, and requests made while logged out, pass through
// unchanged. A nil base uses [http.DefaultTransport].
func Bearer(manager *goSession.Manager, base http.RoundTripper, opts BearerOptions) *BearerTransport {
	return newBearer(manager, base, opts)
}

func newBearer(source sessionSource, base http.RoundTripper, opts BearerOptions) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &BearerTransport{
		source:         source,
		base:           base,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// RoundTrip implements [http.RoundTripper].
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.source.Session().AccessToken
	if token == "" || req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	out.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.base.RoundTrip(out)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && t.onUnauthorized != nil {
		t.onUnauthorized(out, resp)
	}
	return resp, err
}
