package store

import "errors"

var ErrNotificationsDisabled = errors.New("store: change notifications are disabled")
