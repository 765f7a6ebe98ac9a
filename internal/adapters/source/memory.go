package source

import (
	"context"
	"sync"

	"github.com/okian/titlerace/internal/domain/model"
)

// Memory is a GameSource over fixed slices. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	games []model.GameRow
	teams []model.Team
}

// NewMemory returns a source serving copies of games and teams.
func NewMemory(games []model.GameRow, teams []model.Team) *Memory {
	m := &Memory{}
	m.Replace(games, teams)
	return m
}

// Replace swaps the served data.
func (m *Memory) Replace(games []model.GameRow, teams []model.Team) {
	g := append([]model.GameRow(nil), games...)
	t := append([]model.Team(nil), teams...)
	m.mu.Lock()
	m.games, m.teams = g, t
	m.mu.Unlock()
}

// LoadGames implements GameSource.
func (m *Memory) LoadGames(ctx context.Context) ([]model.GameRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.GameRow(nil), m.games...), nil
}

// LoadTeams implements GameSource.
func (m *Memory) LoadTeams(ctx context.Context) ([]model.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Team(nil), m.teams...), nil
}
