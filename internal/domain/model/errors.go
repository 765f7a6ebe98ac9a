package model

import "errors"

// ErrData marks a missing required field or an unusable value. Stages that
// hit it abort the run.
var ErrData = errors.New("data error")
