package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RequestInterceptor runs before a request is sent. It receives a request owned by
// the pipeline and may mutate or replace it. A returned error aborts the exchange.
type RequestInterceptor func(req *http.Request) (*http.Request, error)

// ResponseInterceptor runs after the transport returns. It sees the request that was
// sent and the transport outcome, and returns the outcome passed to the next
// interceptor.
type ResponseInterceptor func(req *http.Request, resp *http.Response, err error) (*http.Response, error)

// Pipeline is an [http.RoundTripper] running request interceptors in order, then
// Base, then response interceptors in order.
type Pipeline struct {
	Requests  []RequestInterceptor
	Responses []ResponseInterceptor
	Base      http.RoundTripper
}

type startedKey struct{}

// RoundTrip implements [http.RoundTripper]. The caller's request is never modified.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := context.WithValue(req.Context(), startedKey{}, time.Now())
	out := req.Clone(ctx)

	var err error
	for _, ri := range p.Requests {
		out, err = ri(out)
		if err != nil {
			closeBody(req)
			return nil, err
		}
	}

	resp, err := p.base().RoundTrip(out)
	for _, ro := range p.Responses {
		resp, err = ro(out, resp, err)
	}

	if err != nil && resp != nil {
		closeResponse(resp)
		resp = nil
	}
	return resp, err
}

const maxRedirects = 10

// Client returns an *http.Client using the pipeline as its transport. Redirects are
// followed only within the original host, since every hop carries the bearer token;
// a redirect elsewhere is returned to the caller as is.
func (p *Pipeline) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: p, Timeout: timeout, CheckRedirect: sameHostRedirect}
}

func sameHostRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	if req.URL.Host != via[0].URL.Host {
		return http.ErrUseLastResponse
	}
	return nil
}

// Elapsed returns the time since the pipeline started handling req.
func Elapsed(req *http.Request) time.Duration {
	if req == nil {
		return 0
	}
	started, ok := req.Context().Value(startedKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(started)
}

func (p *Pipeline) base() http.RoundTripper {
	if p.Base != nil {
		return p.Base
	}
	return http.DefaultTransport
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

func closeResponse(resp *http.Response) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}
