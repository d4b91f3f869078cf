// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates the request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrSessionBusy indicates a generation is already in flight for the conversation.
var ErrSessionBusy = errors.New("generation already in progress for this conversation")

// ErrUnsupportedProvider indicates the model maps to a provider with no wire-format strategy.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ErrCancelled indicates the user stopped an in-flight generation.
var ErrCancelled = errors.New("generation cancelled")
