package cache

import "github.com/pkg/errors"

var (
	// ErrNotCommittee will be returned when a cache object is not a pointer to
	// a Committee struct.
	ErrNotCommittee = errors.New("object is not a committee struct")
	// ErrNilCommittees is returned when a nil committees entry is added to the cache.
	ErrNilCommittees = errors.New("nil committees")
)
