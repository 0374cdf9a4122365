package api

import (
	"errors"
	"fmt"
	"net/http"
)

const maxErrorBody = 512

// StatusError is returned when the server answers with a non-2xx status.
// Statuses are not classified further.
type StatusError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// StatusCode reports the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
