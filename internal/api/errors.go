package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the upstream answers 401. The client
// has already wiped the session by the time callers see it.
var ErrUnauthorized = errors.New("unauthorized: session cleared, log in again")

// APIError is an application-level failure: the upstream answered with
// a well-formed failed envelope. Transport and decode problems are
// plain wrapped errors instead.
type APIError struct {
	HTTPStatus int
	Msg        string
	Err        string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Err != "" && e.Err != e.Msg {
		return fmt.Sprintf("upstream error (HTTP %d): %s: %s", e.HTTPStatus, e.Msg, e.Err)
	}
	return fmt.Sprintf("upstream error (HTTP %d): %s", e.HTTPStatus, e.Msg)
}

// IsAPIError extracts an *APIError from err, if any.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
