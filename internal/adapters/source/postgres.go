package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/okian/titlerace/internal/domain/model"
)

// gamesQuery aliases every column so a test driver can serve rows by name.
// Column order must match the Scan in LoadGames.
const gamesQuery = `
SELECT
	CAST(g.game_id AS text) AS game_id,
	CAST(g.season_id AS integer) AS season_id,
	g.season_type AS season_type,
	CAST(g.game_date AS timestamp) AS game_date,
	CAST(g.team_id_home AS text) AS team_id_home, CAST(g.team_id_away AS text) AS team_id_away,
	g.pts_home AS pts_home, g.pts_away AS pts_away,
	g.fg_pct_home AS fg_pct_home, g.fg_pct_away AS fg_pct_away,
	g.ft_pct_home AS ft_pct_home, g.ft_pct_away AS ft_pct_away,
	g.fg3_pct_home AS fg3_pct_home, g.fg3_pct_away AS fg3_pct_away,
	g.fg3m_home AS fg3m_home, g.fg3m_away AS fg3m_away,
	g.ast_home AS ast_home, g.ast_away AS ast_away,
	g.reb_home AS reb_home, g.reb_away AS reb_away,
	g.oreb_home AS oreb_home, g.oreb_away AS oreb_away,
	g.dreb_home AS dreb_home, g.dreb_away AS dreb_away,
	g.stl_home AS stl_home, g.stl_away AS stl_away,
	g.blk_home AS blk_home, g.blk_away AS blk_away,
	g.tov_home AS tov_home, g.tov_away AS tov_away,
	g.pf_home AS pf_home, g.pf_away AS pf_away,
	g.fga_home AS fga_home, g.fga_away AS fga_away,
	g.fta_home AS fta_home, g.fta_away AS fta_away,
	o.pts_paint_home AS pts_paint_home, o.pts_paint_away AS pts_paint_away,
	o.pts_2nd_chance_home AS pts_2nd_chance_home, o.pts_2nd_chance_away AS pts_2nd_chance_away,
	o.pts_fb_home AS pts_fb_home, o.pts_fb_away AS pts_fb_away,
	o.pts_off_to_home AS pts_off_to_home, o.pts_off_to_away AS pts_off_to_away
FROM game g
LEFT JOIN other_stats o ON g.game_id = o.game_id
WHERE g.season_id IS NOT NULL
	AND g.season_type = $1
	AND CAST(g.season_id AS integer) >= $2
ORDER BY g.season_id, g.game_date`

const teamsQuery = `SELECT CAST(id AS text) AS id, full_name AS full_name, abbreviation AS abbreviation, COALESCE(nickname, '') AS nickname, COALESCE(city, '') AS city FROM team ORDER BY full_name`

// Postgres reads games from the game and other_stats tables.
type Postgres struct {
	db          *sql.DB
	seasonType  string
	minSeasonID int
	timeout     time.Duration
}

// PostgresOption configures a Postgres source.
type PostgresOption func(*Postgres)

// WithSeasonFilter restricts the query to one season type and a minimum season id.
func WithSeasonFilter(seasonType string, minSeasonID int) PostgresOption {
	return func(p *Postgres) {
		p.seasonType = seasonType
		p.minSeasonID = minSeasonID
	}
}

// WithQueryTimeout bounds each query.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(p *Postgres) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	p := &Postgres{
		db:          db,
		seasonType:  "Regular Season",
		minSeasonID: 22003,
		timeout:     2 * time.Minute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, opts ...PostgresOption) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", ErrUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}
	return NewPostgres(db, opts...), nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// LoadGames implements GameSource.
func (p *Postgres) LoadGames(ctx context.Context) ([]model.GameRow, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, gamesQuery, p.seasonType, p.minSeasonID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying games: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var games []model.GameRow
	for rows.Next() {
		var g model.GameRow
		h, a := &g.Home, &g.Away
		err := rows.Scan(
			&g.GameID, &g.SeasonID, &g.SeasonType, &g.GameDate,
			&h.TeamID, &a.TeamID,
			&h.Pts, &a.Pts,
			&h.FgPct, &a.FgPct,
			&h.FtPct, &a.FtPct,
			&h.Fg3Pct, &a.Fg3Pct,
			&h.Fg3m, &a.Fg3m,
			&h.Ast, &a.Ast,
			&h.Reb, &a.Reb,
			&h.Oreb, &a.Oreb,
			&h.Dreb, &a.Dreb,
			&h.Stl, &a.Stl,
			&h.Blk, &a.Blk,
			&h.Tov, &a.Tov,
			&h.Pf, &a.Pf,
			&h.Fga, &a.Fga,
			&h.Fta, &a.Fta,
			&g.HomeHustle.PtsPaint, &g.AwayHustle.PtsPaint,
			&g.HomeHustle.Pts2ndChance, &g.AwayHustle.Pts2ndChance,
			&g.HomeHustle.PtsFb, &g.AwayHustle.PtsFb,
			&g.HomeHustle.PtsOffTo, &g.AwayHustle.PtsOffTo,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading games: %v", ErrUnavailable, err)
	}
	return games, nil
}

// LoadTeams implements GameSource.
func (p *Postgres) LoadTeams(ctx context.Context) ([]model.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, teamsQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: querying teams: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.FullName, &t.Abbreviation, &t.Nickname, &t.City); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
