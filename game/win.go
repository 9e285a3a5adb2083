package game

import (
	"encoding/json"
	"fmt"
)

const (
	PatternMainDiagonal = "Diagonal (Top-Left to Bottom-Right)"
	PatternAntiDiagonal = "Diagonal (Top-Right to Bottom-Left)"
)

// Verdict is the outcome of checking one grid against the called numbers.
type Verdict struct {
	IsWinner bool
	Pattern  string // empty when IsWinner is false
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	var pattern *string
	if v.IsWinner {
		pattern = &v.Pattern
	}
	return json.Marshal(struct {
		IsWinner bool    `json:"isWinner"`
		Pattern  *string `json:"pattern"`
	}{v.IsWinner, pattern})
}

// Evaluate reports the first completed line on g. Rows are checked top to
// bottom, then columns left to right, then the main and anti diagonals; the
// first match decides the reported pattern. The FREE cell is always marked.
func Evaluate(g Grid, called []int) Verdict {
	var marked [MaxNumber + 1]bool
	for _, n := range called {
		if n >= 1 && n <= MaxNumber {
			marked[n] = true
		}
	}
	isMarked := func(row, col int) bool {
		v := g[row][col]
		return v == FreeCell || (v >= 1 && v <= MaxNumber && marked[v])
	}

	for row := 0; row < GridSize; row++ {
		if line(func(i int) bool { return isMarked(row, i) }) {
			return Verdict{IsWinner: true, Pattern: fmt.Sprintf("Horizontal Row %d", row+1)}
		}
	}
	for col := 0; col < GridSize; col++ {
		if line(func(i int) bool { return isMarked(i, col) }) {
			return Verdict{IsWinner: true, Pattern: fmt.Sprintf("Vertical %s Column", columnLetters[col])}
		}
	}
	if line(func(i int) bool { return isMarked(i, i) }) {
		return Verdict{IsWinner: true, Pattern: PatternMainDiagonal}
	}
	if line(func(i int) bool { return isMarked(i, GridSize-1-i) }) {
		return Verdict{IsWinner: true, Pattern: PatternAntiDiagonal}
	}
	return Verdict{}
}

func line(cell func(i int) bool) bool {
	for i := 0; i < GridSize; i++ {
		if !cell(i) {
			return false
		}
	}
	return true
}
