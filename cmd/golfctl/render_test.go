package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trentd187/golf-tournaments/internal/leaderboard"
)

func TestFormatToPar(t *testing.T) {
	assert.Equal(t, "E", formatToPar(0))
	assert.Equal(t, "+3", formatToPar(3))
	assert.Equal(t, "-2", formatToPar(-2))
}

func TestRenderSnapshot(t *testing.T) {
	snap := leaderboard.Snapshot{
		TournamentName: "Spring Open",
		State:          leaderboard.StateLive,
		Live:           true,
		Standings: []leaderboard.StandingsEntry{
			{PlayerName: "Alice", Position: 1, TotalStrokes: 7, ToPar: 0, HolesPlayed: 2, AverageScore: 3.5, LastHoleLabel: "Par"},
			{PlayerName: "Bob", Position: 2, TotalStrokes: 9, ToPar: 2, HolesPlayed: 2, AverageScore: 4.5, LastHoleLabel: "Bogey"},
		},
	}

	out := renderSnapshot(snap)
	assert.Contains(t, out, "Spring Open")
	assert.Contains(t, out, "PLAYER")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
	assert.Contains(t, out, "3.50")
	assert.Contains(t, out, "Bogey")
	assert.NotContains(t, out, "not live")
}

func TestRenderSnapshot_EmptyAndDegraded(t *testing.T) {
	out := renderSnapshot(leaderboard.Snapshot{
		TournamentID: "t-1",
		State:        leaderboard.StateLive,
		Empty:        true,
		Error:        "fetch scores: timeout",
	})
	assert.Contains(t, out, "t-1")
	assert.Contains(t, out, "not live")
	assert.Contains(t, out, "No scores recorded yet.")
	assert.Contains(t, out, "last refresh failed: fetch scores: timeout")
}
