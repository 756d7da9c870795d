package requestid

import (
	"net/http"
	"regexp"
)

const (
	Header      = "X-Request-ID"
	maxIDLength = 128
	idPattern   = "^[a-zA-Z0-9_-]+$"
)

var validIDRegex = regexp.MustCompile(idPattern)

// Transport stamps outgoing requests with the request ID from their context,
// generating one when the context has none. Requests that already carry the
// header are sent unchanged.
type Transport struct {
	// Base is the underlying round tripper. http.DefaultTransport is used when nil.
	Base http.RoundTripper
}

// NewTransport wraps base.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if isValidRequestID(req.Header.Get(Header)) {
		return base.RoundTrip(req)
	}

	ctx, id := Ensure(req.Context())
	// RoundTrippers must not modify the caller's request.
	out := req.Clone(ctx)
	out.Header.Set(Header, id)
	return base.RoundTrip(out)
}

func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}
