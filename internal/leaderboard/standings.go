// Package leaderboard turns raw per-hole score rows into ranked tournament standings
// and keeps those standings current while scores change.
//
// The package has two halves:
//   - ComputeStandings and the label helpers are pure functions with no I/O.
//   - Session (session.go) owns the live subscription for one viewer of one tournament:
//     it listens to the change feed, refetches on every change and republishes.
package leaderboard

import (
	"cmp"
	"slices"
)

// ScoreRow is the fixed shape of one score as returned by Source.FetchScores.
// The hole and profile columns come from joins, so they are pointers: a nil value
// means the join did not resolve and the row cannot be ranked.
type ScoreRow struct {
	PlayerID   string
	PlayerName *string
	Strokes    int
	NetStrokes *int
	HoleNumber *int
	Par        *int
}

// HoleDetail is one hole of a player's scorecard.
type HoleDetail struct {
	HoleNumber int        `json:"hole_number"`
	Par        int        `json:"par"`
	Strokes    int        `json:"strokes"`
	NetStrokes *int       `json:"net_strokes"`
	ToPar      int        `json:"to_par"` // strokes - par
	Label      string     `json:"label"`  // "Birdie", "Par", "+3", ...
	Class      ScoreClass `json:"class"`
}

// StandingsEntry is one player's line on the leaderboard.
// Entries are rebuilt from scratch on every aggregation pass.
type StandingsEntry struct {
	PlayerID        string       `json:"player_id"`
	PlayerName      string       `json:"player_name"`
	TotalStrokes    int          `json:"total_strokes"`
	HolesPlayed     int          `json:"holes_played"`
	AverageScore    float64      `json:"average_score"`
	Position        int          `json:"position"`
	ToPar           int          `json:"to_par"`            // total strokes minus par of the holes played
	TotalNetStrokes int          `json:"total_net_strokes"` // sum of recorded net strokes; never used for ranking
	LastHoleLabel   string       `json:"last_hole_label"`   // label of the highest-numbered hole played
	Holes           []HoleDetail `json:"holes"`
}

// ComputeStandings groups rows by player, totals them and ranks players by
// ascending total strokes. Players with equal totals keep the order in which they
// first appear in rows. Positions are 1-based with no gaps.
//
// Rows whose hole or player name did not resolve, or whose stroke count is not
// positive, are skipped. If the same player has more than one row for a hole
// the last one wins.
//
// The function does not modify rows and has no hidden state.
func ComputeStandings(rows []ScoreRow) []StandingsEntry {
	type accumulator struct {
		entry  StandingsEntry
		byHole map[int]int // hole number -> index into entry.Holes
	}

	// order remembers first-seen order, which becomes the tie-break
	var order []*accumulator
	players := make(map[string]*accumulator)

	for _, row := range rows {
		if row.HoleNumber == nil || row.Par == nil || row.PlayerName == nil || row.Strokes <= 0 {
			continue
		}

		acc, ok := players[row.PlayerID]
		if !ok {
			acc = &accumulator{
				entry: StandingsEntry{
					PlayerID:   row.PlayerID,
					PlayerName: *row.PlayerName,
				},
				byHole: make(map[int]int),
			}
			players[row.PlayerID] = acc
			order = append(order, acc)
		}

		detail := newHoleDetail(*row.HoleNumber, *row.Par, row.Strokes, row.NetStrokes)
		if i, dup := acc.byHole[detail.HoleNumber]; dup {
			acc.entry.Holes[i] = detail
			continue
		}
		acc.byHole[detail.HoleNumber] = len(acc.entry.Holes)
		acc.entry.Holes = append(acc.entry.Holes, detail)
	}

	standings := make([]StandingsEntry, 0, len(order))
	for _, acc := range order {
		entry := acc.entry
		slices.SortStableFunc(entry.Holes, func(a, b HoleDetail) int {
			return cmp.Compare(a.HoleNumber, b.HoleNumber)
		})
		for _, h := range entry.Holes {
			entry.TotalStrokes += h.Strokes
			entry.ToPar += h.ToPar
			if h.NetStrokes != nil {
				entry.TotalNetStrokes += *h.NetStrokes
			}
		}
		entry.HolesPlayed = len(entry.Holes)
		if entry.HolesPlayed > 0 {
			entry.AverageScore = float64(entry.TotalStrokes) / float64(entry.HolesPlayed)
			entry.LastHoleLabel = entry.Holes[entry.HolesPlayed-1].Label
		}
		standings = append(standings, entry)
	}

	// Stable: equal totals stay in first-seen order.
	slices.SortStableFunc(standings, func(a, b StandingsEntry) int {
		return cmp.Compare(a.TotalStrokes, b.TotalStrokes)
	})
	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}

func newHoleDetail(number, par, strokes int, net *int) HoleDetail {
	d := HoleDetail{
		HoleNumber: number,
		Par:        par,
		Strokes:    strokes,
		ToPar:      strokes - par,
		Label:      ScoreToParLabel(strokes, par),
		Class:      ClassifyScore(strokes, par),
	}
	if net != nil {
		v := *net
		d.NetStrokes = &v
	}
	return d
}
