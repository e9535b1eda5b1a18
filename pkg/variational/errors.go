package variational

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredentials is returned when a client is built without a key or secret.
	ErrMissingCredentials = errors.New("variational: api key and secret are required")
	// ErrUnsupportedNetwork is returned for unknown network names in configuration.
	ErrUnsupportedNetwork = errors.New("variational: unsupported network")
)

// APIError is a non-success response from the API. Rate-limit responses end up
// here only when they cannot be retried.
type APIError struct {
	URL        string
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("variational: %s: http %d (code %d): %s", e.URL, e.StatusCode, e.Code, e.Message)
}

// RateLimited reports whether the server rejected the call with HTTP 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

type errorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIError(url string, status int, body []byte) *APIError {
	apiErr := &APIError{URL: url, StatusCode: status}
	var decoded errorBody
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != nil {
		apiErr.Code = decoded.Error.Code
		apiErr.Message = decoded.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsAPIErrorCode reports whether err carries the given API error code.
func IsAPIErrorCode(err error, code int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Code == code
}
