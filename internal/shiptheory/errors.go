package shiptheory

import (
	"errors"
	"fmt"
)

// AuthError reports a failed token exchange: bad credentials, a non-200
// status, an undecodable body, or a 200 response without a token.
type AuthError struct {
	Reason        string
	ServerMessage string // message supplied by the API, if any
	StatusCode    int
	Cause         error
}

func (e *AuthError) Error() string {
	msg := "shiptheory auth: " + e.Reason
	if e.ServerMessage != "" {
		msg += ": " + e.ServerMessage
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (%v)", e.Cause)
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

func newAuthError(reason string, status int, serverMessage string, cause error) *AuthError {
	return &AuthError{
		Reason:        reason,
		ServerMessage: serverMessage,
		StatusCode:    status,
		Cause:         cause,
	}
}

// IsAuthError returns true if the error is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FormatError indicates a token string that does not decode into three
// segments with JSON header and payload.
type FormatError struct {
	Message string
	Cause   error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed token: %s: %v", e.Message, e.Cause)
	}
	return "malformed token: " + e.Message
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

func newFormatError(message string, cause error) *FormatError {
	return &FormatError{Message: message, Cause: cause}
}

// IsFormatError returns true if the error is a FormatError.
func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}

// TransportError carries an error returned by the HTTP transport. The
// transport's error is kept as is and reachable through Unwrap.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("shiptheory transport: %s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

func newTransportError(method, url string, cause error) *TransportError {
	return &TransportError{Method: method, URL: url, Cause: cause}
}

// IsTransportError returns true if the error is a TransportError.
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
