package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TransportError indicates the request never produced a usable
// response: connection refused, timeout, DNS failure, or a garbled
// body. Callers polling the service treat these as retryable.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the service. Detail carries the
// problem document's message when one was returned.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
}

func newAPIError(op string, status int, body []byte) *APIError {
	// The service reports failures as RFC 9457 problem documents.
	var problem struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	detail := ""
	if err := json.Unmarshal(body, &problem); err == nil {
		detail = problem.Detail
		if detail == "" {
			detail = problem.Title
		}
	}
	return &APIError{Op: op, StatusCode: status, Detail: detail}
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
