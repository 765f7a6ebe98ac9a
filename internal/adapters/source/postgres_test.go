package source_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/okian/titlerace/internal/adapters/source"
	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

// namedRowsDriver answers every query with fixture rows keyed by column
// alias, in the order the query selects them.
const namedRowsDriver = "titlerace-named-rows"

var (
	aliasPattern = regexp.MustCompile(`(?m)\bAS (\w+)(?:\s*,|\s*$|\s+FROM\b)`)

	fixturesMu sync.Mutex
	fixtures   = map[string][]map[string]driver.Value{}
)

func init() {
	sql.Register(namedRowsDriver, rowsDriver{})
}

func serve(t *testing.T, rows []map[string]driver.Value) *sql.DB {
	fixturesMu.Lock()
	fixtures[t.Name()] = rows
	fixturesMu.Unlock()
	db, err := sql.Open(namedRowsDriver, t.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type rowsDriver struct{}

func (rowsDriver) Open(name string) (driver.Conn, error) {
	fixturesMu.Lock()
	defer fixturesMu.Unlock()
	return &rowsConn{rows: fixtures[name]}, nil
}

type rowsConn struct{ rows []map[string]driver.Value }

func (c *rowsConn) Prepare(query string) (driver.Stmt, error) {
	return &rowsStmt{conn: c, query: query}, nil
}
func (c *rowsConn) Close() error              { return nil }
func (c *rowsConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type rowsStmt struct {
	conn  *rowsConn
	query string
}

func (s *rowsStmt) Close() error  { return nil }
func (s *rowsStmt) NumInput() int { return -1 }
func (s *rowsStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s *rowsStmt) Query([]driver.Value) (driver.Rows, error) {
	var cols []string
	for _, m := range aliasPattern.FindAllStringSubmatch(s.query, -1) {
		cols = append(cols, m[1])
	}
	return &namedRows{cols: cols, data: s.conn.rows}, nil
}

type namedRows struct {
	cols []string
	data []map[string]driver.Value
	next int
}

func (r *namedRows) Columns() []string { return r.cols }
func (r *namedRows) Close() error      { return nil }

func (r *namedRows) Next(dest []driver.Value) error {
	if r.next >= len(r.data) {
		return io.EOF
	}
	for i, c := range r.cols {
		dest[i] = r.data[r.next][c]
	}
	r.next++
	return nil
}

var sideColumns = []struct {
	name string
	get  func(model.SideStats) sql.NullFloat64
}{
	{"pts", func(s model.SideStats) sql.NullFloat64 { return s.Pts }},
	{"fg_pct", func(s model.SideStats) sql.NullFloat64 { return s.FgPct }},
	{"ft_pct", func(s model.SideStats) sql.NullFloat64 { return s.FtPct }},
	{"fg3_pct", func(s model.SideStats) sql.NullFloat64 { return s.Fg3Pct }},
	{"fg3m", func(s model.SideStats) sql.NullFloat64 { return s.Fg3m }},
	{"ast", func(s model.SideStats) sql.NullFloat64 { return s.Ast }},
	{"reb", func(s model.SideStats) sql.NullFloat64 { return s.Reb }},
	{"oreb", func(s model.SideStats) sql.NullFloat64 { return s.Oreb }},
	{"dreb", func(s model.SideStats) sql.NullFloat64 { return s.Dreb }},
	{"stl", func(s model.SideStats) sql.NullFloat64 { return s.Stl }},
	{"blk", func(s model.SideStats) sql.NullFloat64 { return s.Blk }},
	{"tov", func(s model.SideStats) sql.NullFloat64 { return s.Tov }},
	{"pf", func(s model.SideStats) sql.NullFloat64 { return s.Pf }},
	{"fga", func(s model.SideStats) sql.NullFloat64 { return s.Fga }},
	{"fta", func(s model.SideStats) sql.NullFloat64 { return s.Fta }},
}

var hustleColumns = []struct {
	name string
	get  func(model.HustleLine) sql.NullFloat64
}{
	{"pts_paint", func(h model.HustleLine) sql.NullFloat64 { return h.PtsPaint }},
	{"pts_2nd_chance", func(h model.HustleLine) sql.NullFloat64 { return h.Pts2ndChance }},
	{"pts_fb", func(h model.HustleLine) sql.NullFloat64 { return h.PtsFb }},
	{"pts_off_to", func(h model.HustleLine) sql.NullFloat64 { return h.PtsOffTo }},
}

// gameFixture gives every numeric column a distinct value and leaves the
// columns in nulls out.
func gameFixture(nulls ...string) map[string]driver.Value {
	row := map[string]driver.Value{
		"game_id":      "0021000001",
		"season_id":    int64(22010),
		"season_type":  "Regular Season",
		"game_date":    time.Date(2010, time.October, 26, 0, 0, 0, 0, time.UTC),
		"team_id_home": "1610612747",
		"team_id_away": "1610612738",
	}
	n := 1.0
	for _, c := range sideColumns {
		row[c.name+"_home"], row[c.name+"_away"] = n, n+0.5
		n++
	}
	for _, c := range hustleColumns {
		row[c.name+"_home"], row[c.name+"_away"] = n, n+0.5
		n++
	}
	for _, c := range nulls {
		delete(row, c)
	}
	return row
}

func TestPostgresGameRows(t *testing.T) {
	ctx := context.Background()

	Convey("Given a game row served by column name", t, func() {
		db := serve(t, []map[string]driver.Value{gameFixture("fg3_pct_away", "oreb_home", "pts_fb_home")})
		games, err := source.NewPostgres(db).LoadGames(ctx)
		So(err, ShouldBeNil)
		So(games, ShouldHaveLength, 1)
		g := games[0]

		Convey("Then the identity columns should land on the game", func() {
			So(g.GameID, ShouldEqual, "0021000001")
			So(g.SeasonID, ShouldEqual, 22010)
			So(g.SeasonType, ShouldEqual, "Regular Season")
			So(g.GameDate.Equal(time.Date(2010, time.October, 26, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(g.Home.TeamID, ShouldEqual, "1610612747")
			So(g.Away.TeamID, ShouldEqual, "1610612738")
		})

		Convey("Then every stat column should land on its own side and field", func() {
			want := gameFixture()
			for _, c := range sideColumns {
				if c.name == "oreb" {
					continue
				}
				So(c.get(g.Home).Float64, ShouldEqual, want[c.name+"_home"])
				if c.name != "fg3_pct" {
					So(c.get(g.Away).Float64, ShouldEqual, want[c.name+"_away"])
				}
			}
			for _, c := range hustleColumns {
				if c.name != "pts_fb" {
					So(c.get(g.HomeHustle).Float64, ShouldEqual, want[c.name+"_home"])
				}
				So(c.get(g.AwayHustle).Float64, ShouldEqual, want[c.name+"_away"])
			}
		})

		Convey("Then null columns should stay null instead of reading as 0", func() {
			So(g.Away.Fg3Pct.Valid, ShouldBeFalse)
			So(g.Home.Oreb.Valid, ShouldBeFalse)
			So(g.HomeHustle.PtsFb.Valid, ShouldBeFalse)
			So(g.Home.Fg3Pct.Valid, ShouldBeTrue)

			pair, err := normalize.Split(g)
			So(err, ShouldBeNil)
			So(pair[0].Has(model.StatOppFg3Pct), ShouldBeFalse)
			So(pair[0].Has(model.StatOreb), ShouldBeFalse)
			So(pair[1].Has(model.StatOreb), ShouldBeTrue)
		})
	})

	Convey("Given team rows served by column name", t, func() {
		db := serve(t, []map[string]driver.Value{{
			"id": "1610612747", "full_name": "Los Angeles Lakers", "abbreviation": "LAL",
			"nickname": "Lakers", "city": "Los Angeles",
		}})

		Convey("Then each column should land on its field", func() {
			teams, err := source.NewPostgres(db).LoadTeams(ctx)
			So(err, ShouldBeNil)
			So(teams, ShouldResemble, []model.Team{{
				ID: "1610612747", FullName: "Los Angeles Lakers", Abbreviation: "LAL",
				Nickname: "Lakers", City: "Los Angeles",
			}})
		})
	})
}
