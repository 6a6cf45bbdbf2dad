package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// StatusError is a non-2xx answer from the backend
type StatusError struct {
	Code   int
	Detail string // server-provided message, may be empty
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, http.StatusText(e.Code))
}

// newStatusError extracts the "detail" field the backend puts in error bodies
func newStatusError(resp *resty.Response) *StatusError {
	statusErr := &StatusError{Code: resp.StatusCode()}

	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		var detail string
		if len(body.Detail) > 0 && json.Unmarshal(body.Detail, &detail) == nil {
			statusErr.Detail = detail
		} else if len(body.Detail) > 0 {
			// Validation errors come back as a structured list
			statusErr.Detail = strings.TrimSpace(string(body.Detail))
		} else {
			statusErr.Detail = body.Message
		}
	}
	return statusErr
}

// Detail returns the server-provided message carried by err, if any
func Detail(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Detail
	}
	return ""
}

// IsTransient reports whether err is worth retrying later: network errors,
// timeouts, throttling and server-side failures
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
