package domain

import "errors"

var (
	// ErrNotFound is returned when a catalog or cart collaborator does not know the requested id
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is returned when a collaborator cannot be reached or times out
	ErrUnavailable = errors.New("service unavailable")

	// ErrInvalidInput is returned for empty user ids, empty product ids or non-positive quantities.
	// It is always raised before any collaborator call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegraded is returned when an optional enhancement (generative text, embeddings, NER) failed
	// and the caller is expected to use its fallback path
	ErrDegraded = errors.New("optional enhancement degraded")

	// ErrInvalidRequest is returned when a request does not match the basic shape contract
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)
