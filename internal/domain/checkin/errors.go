package checkin

import "errors"

// ErrClosed is returned when a cache is used after its view was closed.
var ErrClosed = errors.New("checkin view closed")
