package leaderboard

import "strconv"

// ScoreClass says whether a hole was played under, at, or over par.
// It only drives presentation (colouring); it never affects ranking.
type ScoreClass string

const (
	ScoreUnder ScoreClass = "under"
	ScoreEven  ScoreClass = "even"
	ScoreOver  ScoreClass = "over"
)

// ClassifyScore compares strokes to par.
func ClassifyScore(strokes, par int) ScoreClass {
	switch diff := strokes - par; {
	case diff < 0:
		return ScoreUnder
	case diff == 0:
		return ScoreEven
	default:
		return ScoreOver
	}
}

// ScoreToParLabel names a hole result in golf terms:
//
//	-2 Eagle, -1 Birdie, 0 Par, +1 Bogey, +2 Double Bogey
//
// Any other difference is written as a signed number ("+3", "-3").
func ScoreToParLabel(strokes, par int) string {
	diff := strokes - par
	switch diff {
	case -2:
		return "Eagle"
	case -1:
		return "Birdie"
	case 0:
		return "Par"
	case 1:
		return "Bogey"
	case 2:
		return "Double Bogey"
	}
	if diff > 0 {
		return "+" + strconv.Itoa(diff)
	}
	return strconv.Itoa(diff)
}
