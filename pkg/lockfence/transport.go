package lockfence

import "net/http"

// Transport is an http.RoundTripper that gates outgoing requests on a
// Limiter before handing them to the base transport. It never inspects
// the request or response; it only decides when the call may happen.
//
//	client := &http.Client{
//	    Transport: &lockfence.Transport{Limiter: limiter},
//	}
type Transport struct {
	// Limiter guards the shared budget
	Limiter Limiter

	// Base performs the actual request. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip waits for admission on the request's context, then
// delegates to the base transport. With a fail-fast overflow handler
// the returned error is a *RateLimitError carrying the retry hint.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
