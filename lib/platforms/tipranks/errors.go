package tipranks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRequest matches every RequestError.
	ErrRequest = errors.New("tipranks: request failed")
	// ErrLogin matches every LoginError.
	ErrLogin = errors.New("tipranks: login failed")
	// ErrArgument matches every ArgumentError.
	ErrArgument = errors.New("tipranks: invalid argument")
)

// RequestError is returned when a request could not be completed (network failure,
// timeout, cancelled context) or when its response body could not be decoded.
type RequestError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("tipranks: %s %s: request failed: %v", e.Method, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() []error {
	return []error{ErrRequest, e.Err}
}

// LoginError is returned when a session could not be acquired, either because the
// service rejected the credentials or because the login form could not be driven.
type LoginError struct {
	// StatusCode is the http status of a rejected direct login, zero otherwise.
	StatusCode int
	Reason     string
	Err        error
}

func (e *LoginError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tipranks: failed to login, status code: %d", e.StatusCode)
	}
	message := e.Reason
	// reasons such as "failed to find login elements" already read as a failure
	if !strings.HasPrefix(message, "failed to") {
		message = "failed to login, " + message
	}
	if e.Err != nil {
		return fmt.Sprintf("tipranks: %s: %v", message, e.Err)
	}
	return fmt.Sprintf("tipranks: %s", message)
}

func (e *LoginError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLogin}
	}
	return []error{ErrLogin, e.Err}
}

// ArgumentError is returned when a method is given a value outside of its fixed set of choices.
type ArgumentError struct {
	Argument string
	Value    string
	Choices  []string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf(
		"tipranks: %s is not a valid choice for %s. The valid choices are %s.",
		e.Value, e.Argument, strings.Join(e.Choices, ", "),
	)
}

func (e *ArgumentError) Unwrap() error {
	return ErrArgument
}
