package vivint

import (
	"errors"
	"fmt"
)

// ErrMfaRequired is returned by Connect when the account has multi-factor
// authentication enabled and the session is not yet verified. It is not a
// failure: callers should prompt for a code and call VerifyMfa.
var ErrMfaRequired = errors.New("multi-factor authentication required")

// ErrNotConnected is returned by operations that need an established session.
var ErrNotConnected = errors.New("account is not connected")

// AuthenticationError indicates the cloud rejected the credentials or the
// persisted refresh token.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("authentication failed: %s", e.Reason)
	}
	return "authentication failed"
}

// APIError indicates the cloud API returned an unexpected status or the
// request could not be completed. StatusCode is 0 for transport errors.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("vivint api error: %s", e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("vivint api error: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("vivint api error: status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func IsAuthenticationError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
