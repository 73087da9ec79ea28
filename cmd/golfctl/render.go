package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/trentd187/golf-tournaments/internal/leaderboard"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	noticeStyle = lipgloss.NewStyle().Faint(true)

	classColors = map[leaderboard.ScoreClass]lipgloss.Color{
		leaderboard.ScoreUnder: lipgloss.Color("2"), // green
		leaderboard.ScoreEven:  lipgloss.Color("7"),
		leaderboard.ScoreOver:  lipgloss.Color("1"), // red
	}
)

// formatToPar prints E for even and a signed number otherwise.
func formatToPar(d int) string {
	switch {
	case d == 0:
		return "E"
	case d > 0:
		return "+" + strconv.Itoa(d)
	default:
		return strconv.Itoa(d)
	}
}

func classOf(toPar int) leaderboard.ScoreClass {
	switch {
	case toPar < 0:
		return leaderboard.ScoreUnder
	case toPar > 0:
		return leaderboard.ScoreOver
	}
	return leaderboard.ScoreEven
}

// renderSnapshot draws the standings as a table with a status line above it.
func renderSnapshot(snap leaderboard.Snapshot) string {
	var b strings.Builder
	name := snap.TournamentName
	if name == "" {
		name = snap.TournamentID
	}
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")

	status := string(snap.State)
	if !snap.Live {
		status += ", not live (polling)"
	}
	if !snap.UpdatedAt.IsZero() {
		status += ", updated " + snap.UpdatedAt.Format("15:04:05")
	}
	b.WriteString(noticeStyle.Render(status))
	b.WriteString("\n")
	if snap.Error != "" {
		b.WriteString(noticeStyle.Render("last refresh failed: " + snap.Error))
		b.WriteString("\n")
	}

	if snap.Empty || len(snap.Standings) == 0 {
		if snap.State == leaderboard.StateLoading {
			b.WriteString("Loading...")
		} else {
			b.WriteString("No scores recorded yet.")
		}
		return b.String()
	}

	rows := make([][]string, 0, len(snap.Standings))
	for _, e := range snap.Standings {
		rows = append(rows, []string{
			strconv.Itoa(e.Position),
			e.PlayerName,
			strconv.Itoa(e.TotalStrokes),
			formatToPar(e.ToPar),
			strconv.Itoa(e.HolesPlayed),
			fmt.Sprintf("%.2f", e.AverageScore),
			e.LastHoleLabel,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("POS", "PLAYER", "STROKES", "TO PAR", "HOLES", "AVG", "LAST").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 && row >= 0 && row < len(snap.Standings) {
				return cellStyle.Foreground(classColors[classOf(snap.Standings[row].ToPar)])
			}
			return cellStyle
		})
	b.WriteString(t.Render())
	return b.String()
}
