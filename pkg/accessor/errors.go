package accessor

import (
	"errors"

	"github.com/dmitrymomot/billingkit/pkg/apiclient"
)

// Kind classifies a failed read.
type Kind int

const (
	// KindServerRejected: the server answered with an error status or an
	// unreadable body.
	KindServerRejected Kind = iota + 1
	// KindNoResponse: the request was sent but no response arrived.
	KindNoResponse
	// KindRequestSetup: the request could not be issued.
	KindRequestSetup
)

func (k Kind) String() string {
	switch k {
	case KindServerRejected:
		return "server_rejected"
	case KindNoResponse:
		return "no_response"
	case KindRequestSetup:
		return "request_setup"
	default:
		return "unknown"
	}
}

var (
	ErrServerRejected = errors.New("accessor: server rejected the request")
	ErrNoResponse     = errors.New("accessor: no response received from server")
	ErrRequestSetup   = errors.New("accessor: error setting up request")
)

const (
	msgNoResponse   = "No response received from server"
	msgRequestSetup = "Error setting up request"
)

// Error is the failure reported by read accessors. Its message is the only
// detail it carries: the server's "detail" text, or a fixed message per
// operation and kind. Match the kind with errors.Is against ErrServerRejected,
// ErrNoResponse or ErrRequestSetup.
type Error struct {
	Op      string
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrServerRejected:
		return e.Kind == KindServerRejected
	case ErrNoResponse:
		return e.Kind == KindNoResponse
	case ErrRequestSetup:
		return e.Kind == KindRequestSetup
	}
	return false
}

// normalize maps a client failure of op onto an *Error. fallback is used
// when the server gave no detail.
func normalize(op, fallback string, err error) *Error {
	var (
		respErr   *apiclient.ResponseError
		noRespErr *apiclient.NoResponseError
		reqErr    *apiclient.RequestError
	)
	switch {
	case errors.As(err, &respErr):
		msg := respErr.Detail
		if msg == "" {
			msg = fallback
		}
		return &Error{Op: op, Kind: KindServerRejected, Message: msg}
	case errors.Is(err, apiclient.ErrMalformedBody):
		return &Error{Op: op, Kind: KindServerRejected, Message: fallback}
	case errors.As(err, &noRespErr):
		return &Error{Op: op, Kind: KindNoResponse, Message: msgNoResponse}
	case errors.As(err, &reqErr):
		return &Error{Op: op, Kind: KindRequestSetup, Message: msgRequestSetup}
	default:
		return &Error{Op: op, Kind: KindRequestSetup, Message: msgRequestSetup}
	}
}
