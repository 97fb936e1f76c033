package cache

import "errors"

var (
	// ErrInvalidTTL is returned when a cache is created with a non-positive TTL.
	ErrInvalidTTL = errors.New("cache ttl must be positive")

	// ErrStoreRequired is returned when WithSecondary is given a nil store.
	ErrStoreRequired = errors.New("secondary store required")

	// ErrSerializerRequired is returned when WithSecondary is given a nil serializer.
	ErrSerializerRequired = errors.New("serializer required")
)
