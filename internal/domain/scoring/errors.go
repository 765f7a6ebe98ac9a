package scoring

import "errors"

// Sentinel error kinds for this package.
var (
	// ErrInvalidModel marks a model file that cannot be used for inference.
	ErrInvalidModel = errors.New("invalid model")

	// ErrEnsembleSize is returned when an ensemble is not built from exactly three scorers.
	ErrEnsembleSize = errors.New("ensemble needs exactly three scorers")

	// ErrScorer marks a failure of a scoring collaborator: a call error or an
	// output that is not a probability.
	ErrScorer = errors.New("scorer failed")

	// ErrRemoteScorer wraps transport and protocol failures of a model server.
	ErrRemoteScorer = errors.New("remote scorer failed")
)
