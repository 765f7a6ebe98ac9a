package pipeline

import (
	"time"

	"github.com/okian/titlerace/internal/domain/groundtruth"
	"github.com/okian/titlerace/internal/domain/scaler"
	"github.com/okian/titlerace/pkg/logger"
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithWorkerCount bounds the goroutines used for derivation and scoring.
func WithWorkerCount(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRecentWindow sets the number of trailing games behind the form features.
func WithRecentWindow(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.window = n
		}
	}
}

// WithSeasonFilter keeps only games of seasonType with a season id >= minSeasonID.
func WithSeasonFilter(seasonType string, minSeasonID int) Option {
	return func(p *Pipeline) {
		p.seasonType = seasonType
		p.minSeasonID = minSeasonID
	}
}

// WithGroundTruth sets the champions table used for evaluation.
func WithGroundTruth(t *groundtruth.Table) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.truth = t
		}
	}
}

// WithScaler uses a previously fitted scaler instead of fitting one.
func WithScaler(s *scaler.Fitted) Option {
	return func(p *Pipeline) {
		p.preloaded = s
	}
}

// WithArtifactDir writes scaler.json and metadata.json to dir after each run.
func WithArtifactDir(dir string) Option {
	return func(p *Pipeline) {
		p.artifactDir = dir
	}
}

// WithClock overrides the time source used to stamp runs.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}
