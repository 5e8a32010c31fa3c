// Package apierr classifies collaborator failures into the portal's error
// taxonomy: local validation errors, transport-level network errors, 5xx
// server errors, and 4xx client errors that may carry a server-provided
// message. UserMessage maps any error to the fixed, user-facing string the
// portal shows for that class.
package apierr

import (
	"errors"
	"fmt"
)

// Fixed user-facing messages. Client errors with a server-provided message
// surface that message verbatim instead.
const (
	MsgNetwork    = "通信エラーが発生しました。接続を確認して再度お試しください。"
	MsgServer     = "サーバーエラーが発生しました。しばらくしてから再度お試しください。"
	MsgUnexpected = "エラーが発生しました。もう一度お試しください。"
)

// ValidationError is a local, pre-submission failure. It never reaches the
// network and is surfaced immediately as a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NetworkError is a transport-level failure (connectivity loss, DNS, timeout
// surfaced by the transport). Always recoverable by retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a 5xx response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error: status %d: %s", e.StatusCode, e.Message)
}

// ClientError is a 4xx response. Message holds the server-provided message
// when the body carried one.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("client error: status %d: %s", e.StatusCode, e.Message)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Network(err error) error { return &NetworkError{Err: err} }

func Server(statusCode int, message string) error {
	return &ServerError{StatusCode: statusCode, Message: message}
}

func Client(statusCode int, message string) error {
	return &ClientError{StatusCode: statusCode, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

func IsClient(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// Retryable reports whether a retry can plausibly succeed. Network and
// server-side failures are transient; validation and 4xx failures are not.
func Retryable(err error) bool {
	return IsNetwork(err) || IsServer(err)
}

// UserMessage converts any collaborator error into the string shown to the
// user. Nothing in this layer is fatal: every error maps to a message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	if IsNetwork(err) {
		return MsgNetwork
	}
	if IsServer(err) {
		return MsgServer
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		if ce.Message != "" {
			return ce.Message
		}
		return MsgUnexpected
	}
	return MsgUnexpected
}
