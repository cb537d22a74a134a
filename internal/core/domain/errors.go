package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSegmentNotFound indicates no segment carries the requested id
	ErrSegmentNotFound = errors.New("segment not found")

	// ErrNoDocument indicates the session has no loaded document
	ErrNoDocument = errors.New("no document loaded")

	// ErrQueueFull indicates an intent could not be buffered for dispatch
	ErrQueueFull = errors.New("intent queue full")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
