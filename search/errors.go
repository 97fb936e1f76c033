package search

import "errors"

var (
	// ErrThreadCacheRequired is returned when a pipeline is created without a cache.
	ErrThreadCacheRequired = errors.New("thread cache required")

	// ErrSourceRequired is returned when Run is given a nil thread source.
	ErrSourceRequired = errors.New("thread source required")

	// ErrConditionRequired is returned when Run is given a nil condition.
	ErrConditionRequired = errors.New("search condition required")

	// ErrRunRequired is returned when Run is given a nil run handle.
	ErrRunRequired = errors.New("run handle required")

	// ErrInvalidDate is returned when a date filter does not parse.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidDateRange is returned when the start date is after the end date.
	ErrInvalidDateRange = errors.New("start date is after end date")

	// ErrInvalidConcurrency is returned for a non-positive concurrency cap.
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
)
