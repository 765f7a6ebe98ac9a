// Package source reads raw games and teams for the pipeline.
package source

import (
	"context"
	"errors"

	"github.com/okian/titlerace/internal/domain/model"
)

// ErrUnavailable reports that the source could not be reached or read.
var ErrUnavailable = errors.New("game source unavailable")

// GameSource supplies the raw input of a pipeline run.
type GameSource interface {
	// LoadGames returns two-sided game rows. Order is not guaranteed.
	LoadGames(ctx context.Context) ([]model.GameRow, error)
	// LoadTeams returns every known franchise.
	LoadTeams(ctx context.Context) ([]model.Team, error)
}
