package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
func row(player, name string, hole, par, strokes int) ScoreRow {
	return ScoreRow{
		PlayerID:   player,
		PlayerName: strp(name),
		Strokes:    strokes,
		HoleNumber: intp(hole),
		Par:        intp(par),
	}
}

// roundOf gives a player one row per stroke count, on consecutive par-4 holes.
func roundOf(player string, strokes ...int) []ScoreRow {
	rows := make([]ScoreRow, 0, len(strokes))
	for i, s := range strokes {
		rows = append(rows, row(player, player, i+1, 4, s))
	}
	return rows
}

func TestComputeStandings_RanksByTotalStrokes(t *testing.T) {
	var rows []ScoreRow
	rows = append(rows, roundOf("carol", 5, 5, 5)...) // 15
	rows = append(rows, roundOf("alice", 3, 4, 4)...) // 11
	rows = append(rows, roundOf("dave", 6, 6, 7)...)  // 19
	rows = append(rows, roundOf("bob", 4, 4, 5)...)   // 13

	standings := ComputeStandings(rows)
	require.Len(t, standings, 4)

	want := []string{"alice", "bob", "carol", "dave"}
	for i, entry := range standings {
		assert.Equal(t, want[i], entry.PlayerID)
		assert.Equal(t, i+1, entry.Position, "positions are dense and 1-based")
		if i > 0 {
			assert.Greater(t, entry.TotalStrokes, standings[i-1].TotalStrokes)
		}
	}
}

func TestComputeStandings_TiesKeepFirstSeenOrder(t *testing.T) {
	rows := []ScoreRow{
		row("A", "A", 1, 72, 72),
		row("B", "B", 1, 72, 70),
		row("C", "C", 1, 72, 70),
	}

	standings := ComputeStandings(rows)
	require.Len(t, standings, 3)
	assert.Equal(t, "B", standings[0].PlayerID)
	assert.Equal(t, "C", standings[1].PlayerID)
	assert.Equal(t, "A", standings[2].PlayerID)
	assert.Equal(t, []int{1, 2, 3}, []int{standings[0].Position, standings[1].Position, standings[2].Position})
}

func TestComputeStandings_Average(t *testing.T) {
	standings := ComputeStandings(roundOf("p1", 4, 5, 3))
	require.Len(t, standings, 1)
	assert.Equal(t, 4.0, standings[0].AverageScore)
	assert.Equal(t, 3, standings[0].HolesPlayed)
	assert.Equal(t, 12, standings[0].TotalStrokes)
}

func TestComputeStandings_SkipsUnrankableRows(t *testing.T) {
	rows := []ScoreRow{
		{PlayerID: "ghost", PlayerName: strp("Ghost"), Strokes: 4, HoleNumber: nil, Par: intp(4)}, // hole join missing
		{PlayerID: "ghost", PlayerName: strp("Ghost"), Strokes: 4, HoleNumber: intp(2), Par: nil},
		{PlayerID: "anon", PlayerName: nil, Strokes: 4, HoleNumber: intp(1), Par: intp(4)}, // profile join missing
		row("zero", "Zero", 1, 4, 0),
		row("ok", "Ok", 1, 4, 4),
	}

	standings := ComputeStandings(rows)
	require.Len(t, standings, 1)
	assert.Equal(t, "ok", standings[0].PlayerID)
}

func TestComputeStandings_NothingRankable(t *testing.T) {
	rows := []ScoreRow{{PlayerID: "p", PlayerName: strp("P"), Strokes: 4}}

	standings := ComputeStandings(rows)
	assert.NotNil(t, standings)
	assert.Empty(t, standings)

	assert.Empty(t, ComputeStandings(nil))
}

func TestComputeStandings_DuplicateHoleLastWins(t *testing.T) {
	rows := []ScoreRow{
		row("p", "P", 1, 4, 6),
		row("p", "P", 2, 3, 3),
		row("p", "P", 1, 4, 4),
	}

	standings := ComputeStandings(rows)
	require.Len(t, standings, 1)
	assert.Equal(t, 2, standings[0].HolesPlayed)
	assert.Equal(t, 7, standings[0].TotalStrokes)
	assert.Equal(t, 4, standings[0].Holes[0].Strokes)
}

func TestComputeStandings_HolesSortedAndExtras(t *testing.T) {
	r3 := row("p", "P", 3, 5, 4)
	r3.NetStrokes = intp(3)
	r1 := row("p", "P", 1, 4, 6)
	r1.NetStrokes = intp(5)
	rows := []ScoreRow{r3, r1, row("p", "P", 2, 3, 3)}

	standings := ComputeStandings(rows)
	require.Len(t, standings, 1)
	entry := standings[0]

	var numbers []int
	for _, h := range entry.Holes {
		numbers = append(numbers, h.HoleNumber)
	}
	assert.Equal(t, []int{1, 2, 3}, numbers)

	assert.Equal(t, 1, entry.ToPar) // +2, 0, -1
	assert.Equal(t, 8, entry.TotalNetStrokes)
	assert.Equal(t, "Birdie", entry.LastHoleLabel)
	assert.Equal(t, "Double Bogey", entry.Holes[0].Label)
	assert.Equal(t, ScoreOver, entry.Holes[0].Class)
	assert.Equal(t, ScoreEven, entry.Holes[1].Class)
	assert.Equal(t, ScoreUnder, entry.Holes[2].Class)
}

func TestComputeStandings_NetStrokesDoNotAffectRanking(t *testing.T) {
	a := row("a", "A", 1, 4, 4)
	a.NetStrokes = intp(4)
	b := row("b", "B", 1, 4, 5)
	b.NetStrokes = intp(2)

	standings := ComputeStandings([]ScoreRow{b, a})
	require.Len(t, standings, 2)
	assert.Equal(t, "a", standings[0].PlayerID)
}

func TestComputeStandings_Idempotent(t *testing.T) {
	var rows []ScoreRow
	rows = append(rows, roundOf("x", 4, 4, 4)...)
	rows = append(rows, roundOf("y", 3, 5, 4)...)
	rows = append(rows, roundOf("z", 5, 5)...)
	before := append([]ScoreRow(nil), rows...)

	first := ComputeStandings(rows)
	second := ComputeStandings(rows)

	assert.Equal(t, first, second)
	assert.Equal(t, before, rows, "input is not modified")
}

func TestComputeStandings_AliceAndBob(t *testing.T) {
	rows := []ScoreRow{
		row("alice", "Alice", 1, 4, 4),
		row("alice", "Alice", 2, 3, 2),
		row("bob", "Bob", 1, 4, 5),
		row("bob", "Bob", 2, 3, 3),
	}

	standings := ComputeStandings(rows)
	require.Len(t, standings, 2)

	alice, bob := standings[0], standings[1]
	assert.Equal(t, "Alice", alice.PlayerName)
	assert.Equal(t, 1, alice.Position)
	assert.Equal(t, 6, alice.TotalStrokes)
	assert.Equal(t, 3.0, alice.AverageScore)
	assert.Equal(t, "Birdie", alice.Holes[1].Label)

	assert.Equal(t, "Bob", bob.PlayerName)
	assert.Equal(t, 2, bob.Position)
	assert.Equal(t, 8, bob.TotalStrokes)
	assert.Equal(t, 4.0, bob.AverageScore)
}
