package scmtrack

import "errors"

var (
	// ErrNoDatabase indicates no database option was given.
	ErrNoDatabase = errors.New("scmtrack: no database configured")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("scmtrack: client is closed")
)
