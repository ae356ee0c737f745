package domain

import "errors"

var (
	// ErrNotFound is returned when a pantry item, recipe or shopping list entry does not exist for the owner
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnauthorized is returned when no owner identity could be established
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrStoreFailure is returned when the backing store rejects a read or write
	ErrStoreFailure = errors.New("store operation failed")

	// ErrUpstreamFailure is returned when the recipe/OCR pipeline service fails
	ErrUpstreamFailure = errors.New("pipeline service request failed")

	// ErrPipelineTimeout is returned when a pipeline run does not finish in time
	ErrPipelineTimeout = errors.New("pipeline run timed out")
)
