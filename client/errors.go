package client

import (
	"errors"
	"fmt"
)

// Error classes for a failed admin action. Each failure returned by the client
// wraps exactly one of them.
var (
	// ErrTransport means the request never produced a response.
	ErrTransport = errors.New("request failed")

	// ErrProtocol means a response arrived but was not the JSON result envelope.
	ErrProtocol = errors.New("unexpected response")

	// ErrApplication means the server answered with success set to false.
	ErrApplication = errors.New("action rejected")
)

// StatusError carries a non-2xx response that could not be decoded.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrProtocol
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsProtocol reports whether err is a protocol failure.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}
