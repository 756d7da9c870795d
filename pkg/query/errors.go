package query

import "errors"

var (
	ErrTypeMismatch   = errors.New("query: cached data has a different type")
	ErrProducerPanic  = errors.New("query: producer panicked")
	ErrCallbackPanic  = errors.New("query: mutation callback panicked")
	ErrNilProducer    = errors.New("query: producer is nil")
	ErrQueryAbandoned = errors.New("query: caller stopped waiting for the result")
)
