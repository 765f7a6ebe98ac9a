package features

import (
	"time"

	"github.com/okian/titlerace/internal/domain/model"
)

// DefaultWindow is the number of trailing games behind the form features.
const DefaultWindow = 20

// Form holds the trailing-window features of a team-season.
type Form struct {
	WinPct    float64
	PointDiff float64
	Momentum  float64

	// Games is how many records the window used.
	Games int
}

// Window computes Form over the last Size games.
type Window struct {
	Size int
}

// NewWindow returns a Window of size games; size <= 0 means DefaultWindow.
func NewWindow(size int) Window {
	if size <= 0 {
		size = DefaultWindow
	}
	return Window{Size: size}
}

// Compute takes records (chronological) of the key's team-season played on or
// before cutoff and averages the last Size of them. A zero cutoff keeps all
// games. Records of any other team or season are ignored.
func (w Window) Compute(key model.TeamSeasonKey, records []model.GameRecord, cutoff time.Time) Form {
	var form Form
	var wins, diff float64

	for i := len(records) - 1; i >= 0 && form.Games < w.Size; i-- {
		r := records[i]
		if r.Key() != key {
			continue
		}
		if !cutoff.IsZero() && r.GameDate.After(cutoff) {
			continue
		}
		if r.Won {
			wins++
		}
		diff += r.PointDiff()
		form.Games++
	}
	if form.Games == 0 {
		return form
	}
	n := float64(form.Games)
	form.WinPct = wins / n
	form.PointDiff = diff / n
	form.Momentum = form.WinPct * form.PointDiff
	return form
}
