package model

import "time"

// RefreshRequest asks for the pipeline to be re-run against the source.
type RefreshRequest struct {
	ID          string
	Reason      string
	RequestedAt time.Time
}
