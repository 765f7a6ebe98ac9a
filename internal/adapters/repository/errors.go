package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidRun = errors.New("invalid run")
	ErrCacheMiss  = errors.New("cache miss")
)
