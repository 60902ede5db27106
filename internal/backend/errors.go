package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned for any non-2xx reply. It carries the status code and the
// raw response body.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// NotFound reports whether the reply was 404.
func (e *HTTPError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// StatusCode returns the HTTP status carried by err, or 0 when err is not an *HTTPError.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) {
		return herr.StatusCode
	}
	return 0
}
