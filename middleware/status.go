package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// StatusError is a completed HTTP exchange with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, status, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, status)
}

// Message returns the server's error message when the body is a JSON object with a
// "message" or "error" field.
func (e *StatusError) Message() string {
	if len(e.Body) == 0 {
		return ""
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an HTTP
// status failure.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err carries HTTP 401.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// StatusCheck converts 4xx and 5xx responses into [*StatusError]. The body (up to
// 64 KiB) is kept on the error and the response is closed. Redirects pass through so
// the [http.Client] can follow them. Transport failures pass through.
func StatusCheck() ResponseInterceptor {
	return func(req *http.Request, resp *http.Response, err error) (*http.Response, error) {
		if err != nil || resp == nil {
			return resp, err
		}
		if resp.StatusCode < 400 {
			return resp, nil
		}

		return nil, NewStatusError(req, resp)
	}
}

// NewStatusError builds a [*StatusError] from a completed exchange, reading up to
// 64 KiB of the body and closing it.
func NewStatusError(req *http.Request, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()

	return &StatusError{
		Method:     req.Method,
		URL:        redactURL(req),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
}

func redactURL(req *http.Request) string {
	if req.URL == nil {
		return ""
	}
	u := *req.URL
	u.User = nil
	u.RawQuery = ""
	return strings.TrimSuffix(u.String(), "?")
}
