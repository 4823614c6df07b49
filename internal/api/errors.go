package api

import (
	"fmt"
	"net/http"
)

// StatusError is a non-success response with no more specific meaning.
type StatusError struct {
	Method string
	Route  string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Route, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}
