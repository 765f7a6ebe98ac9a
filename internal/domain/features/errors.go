package features

import "errors"

// ErrFeatureOrderMismatch is returned when a vector's names or length diverge
// from the canonical schema.
var ErrFeatureOrderMismatch = errors.New("feature order mismatch")
