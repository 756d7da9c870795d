package checkout

import "errors"

var (
	ErrAlreadyPending = errors.New("checkout: price already has a checkout in progress")
	ErrNoDestination  = errors.New("checkout: transition carries no destination")
)
