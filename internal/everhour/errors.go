package everhour

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoToken is returned before any request when no API token is set.
	ErrNoToken = errors.New("no API token configured")
	// ErrUnauthorized is an HTTP 401 from the API.
	ErrUnauthorized = errors.New("invalid API token")
	// ErrForbidden is an HTTP 403 from the API.
	ErrForbidden = errors.New("API access forbidden, check the token permissions")
	// ErrResponseTooLarge is a response body over the client's size limit.
	ErrResponseTooLarge = errors.New("response body too large")
)

// APIError is any other non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("everhour API error %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("everhour API error %d: %s", e.Status, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	}
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &APIError{Status: status, Body: string(body)}
}
