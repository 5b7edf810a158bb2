package database

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingURL is returned when no connection string is configured.
	ErrMissingURL = errors.New("database url is not configured")

	// ErrNotConnected is returned when an operation needs an open handle.
	ErrNotConnected = errors.New("database is not connected")

	// ErrRegistryInitialized is returned by Configure after the manager was built.
	ErrRegistryInitialized = errors.New("database registry already initialized")

	// ErrInvalidRetryConfig is returned for a negative attempt budget.
	ErrInvalidRetryConfig = errors.New("retry max attempts must be at least 1")
)

// ConnectionError reports that the database client could not establish a session.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to database: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// DisconnectionError reports that the database client failed to close cleanly.
type DisconnectionError struct {
	Err error
}

func (e *DisconnectionError) Error() string {
	return fmt.Sprintf("failed to disconnect from database: %v", e.Err)
}

func (e *DisconnectionError) Unwrap() error { return e.Err }
