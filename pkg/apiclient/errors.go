package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig   = errors.New("apiclient: invalid configuration")
	ErrUnknownResource = errors.New("apiclient: unknown resource")
	ErrMalformedBody   = errors.New("apiclient: malformed response body")
	ErrInvalidSegment  = errors.New("apiclient: invalid path segment")
)

// RequestError reports a request that could not be built or issued.
type RequestError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("apiclient: prepare %s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NoResponseError reports a request that was sent but got no complete
// response, such as a network failure or transport timeout.
type NoResponseError struct {
	Method string
	URL    string
	Err    error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("apiclient: %s %s: no response: %v", e.Method, e.URL, e.Err)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// ResponseError reports a non-2xx response. Detail holds the server's
// "detail" message when the body carried one. RequestID is the X-Request-ID
// the request went out with.
type ResponseError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Detail     string
	RequestID  string
}

func (e *ResponseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("apiclient: %s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("apiclient: %s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// detailOf extracts a string "detail" field from an error body.
// Validation errors carry a list there and yield "".
func detailOf(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
		return ""
	}
	return detail
}
